package youtube

import (
	"fmt"
	"strings"

	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/timeutil"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 5000
	maxTagCount          = 15
)

// Video is the metadata attached to an upload.
type Video struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     string
}

// BuildVideo shapes episode metadata into upload metadata, enforcing the
// platform's field limits and appending show notes and chapter markers to
// the description.
func BuildVideo(ep *episode.Episode, categoryID, privacy string) Video {
	video := Video{
		Title:      ep.Title(),
		CategoryID: categoryID,
		Privacy:    privacy,
	}
	if ep.Number > 0 && ep.Metadata != nil && ep.Metadata.Title != "" {
		video.Title = fmt.Sprintf("Ep. %d — %s", ep.Number, video.Title)
	}
	if ep.Privacy != "" {
		video.Privacy = ep.Privacy
	}

	var description strings.Builder
	if ep.Metadata != nil {
		description.WriteString(strings.TrimSpace(ep.Metadata.Description))
		if notes := strings.TrimSpace(ep.Metadata.ShowNotes); notes != "" {
			description.WriteString("\n\n")
			description.WriteString(notes)
		}
		if len(ep.Metadata.Chapters) > 0 {
			description.WriteString("\n\nChapters:\n")
			for _, ch := range ep.Metadata.Chapters {
				fmt.Fprintf(&description, "%s %s\n", timeutil.ChapterMark(ch.StartSeconds), ch.Title)
			}
		}
		video.Tags = ep.Metadata.Tags
	}
	video.Description = description.String()

	video.Title = truncate(video.Title, maxTitleLength)
	video.Description = truncate(video.Description, maxDescriptionLength)
	if len(video.Tags) > maxTagCount {
		video.Tags = video.Tags[:maxTagCount]
	}
	return video
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// requestBody renders the session-open JSON payload.
func (v Video) requestBody() map[string]any {
	snippet := map[string]any{
		"title":       v.Title,
		"description": v.Description,
	}
	if len(v.Tags) > 0 {
		snippet["tags"] = v.Tags
	}
	if v.CategoryID != "" {
		snippet["categoryId"] = v.CategoryID
	}
	return map[string]any{
		"snippet": snippet,
		"status": map[string]any{
			"privacyStatus": v.Privacy,
		},
	}
}

// WatchURL returns the public watch page for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
