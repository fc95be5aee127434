// Package tags writes ID3v2 metadata onto encoded episode audio before it is
// published.
package tags

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"

	"github.com/benrubinchik/podflow/internal/services"
)

// Info is the metadata applied to an episode MP3.
type Info struct {
	Title         string
	Artist        string
	Album         string
	Genre         string
	Year          int
	TrackNumber   int
	Comment       string
	EncodedBy     string
	PodcastMarker bool
	// ArtworkPath optionally embeds a front-cover image (jpeg or png).
	ArtworkPath string
}

// Apply writes the tag onto the MP3 at path, replacing any existing tag.
func Apply(path string, info Info) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: false})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "host_audio", "tag",
			fmt.Sprintf("open %s for tagging", path), err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if info.Title != "" {
		tag.SetTitle(info.Title)
	}
	if info.Artist != "" {
		tag.SetArtist(info.Artist)
	}
	if info.Album != "" {
		tag.SetAlbum(info.Album)
	}
	if info.Genre != "" {
		tag.SetGenre(info.Genre)
	}
	if info.Year > 0 {
		tag.SetYear(strconv.Itoa(info.Year))
	}
	if info.TrackNumber > 0 {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"),
			id3v2.EncodingUTF8, strconv.Itoa(info.TrackNumber))
	}
	if info.EncodedBy != "" {
		tag.AddTextFrame("TENC", id3v2.EncodingUTF8, info.EncodedBy)
	}
	if info.PodcastMarker {
		// Marks the file as a podcast for players that honor the iTunes frame.
		tag.AddTextFrame("PCST", id3v2.EncodingUTF8, "1")
	}
	if info.Comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "",
			Text:        info.Comment,
		})
	}
	if info.ArtworkPath != "" {
		artwork, err := os.ReadFile(info.ArtworkPath)
		if err != nil {
			return services.Wrap(services.ErrValidation, "host_audio", "tag",
				fmt.Sprintf("read artwork %s", info.ArtworkPath), err)
		}
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    artworkMime(info.ArtworkPath),
			PictureType: id3v2.PTFrontCover,
			Picture:     artwork,
		})
	}

	if err := tag.Save(); err != nil {
		return services.Wrap(services.ErrExternalTool, "host_audio", "tag",
			fmt.Sprintf("save tag on %s", path), err)
	}
	return nil
}

func artworkMime(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
