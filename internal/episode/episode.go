// Package episode defines the in-memory aggregate that pipeline stages read
// from and write to. Stages mutate the episode directly; the persisted stage
// outputs exist so the aggregate can be reconstructed on resume.
package episode

import (
	"fmt"
	"time"
)

// Episode carries everything known about one recording as it moves through
// the pipeline. Fields are populated stage by stage.
type Episode struct {
	Number    int
	InputFile string
	Privacy   string

	AudioFile            string
	AudioDurationSeconds float64
	VideoFile            string

	TranscriptFile string
	Transcript     *Transcript

	MetadataFile string
	Metadata     *Metadata

	YouTubeVideoID string
	YouTubeURL     string

	AudioURL       string
	AudioSizeBytes int64

	FeedUpdated bool
	PublishDate time.Time
}

// Title returns the episode's display title, falling back to a numbered
// placeholder when metadata generation has not run.
func (e *Episode) Title() string {
	if e.Metadata != nil && e.Metadata.Title != "" {
		return e.Metadata.Title
	}
	if e.Number > 0 {
		return fmt.Sprintf("Episode %d", e.Number)
	}
	return "Untitled Episode"
}

// Segment is one timed span of transcribed speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the full transcription of an episode's audio.
type Transcript struct {
	Language string    `json:"language,omitempty"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// TimestampedText renders the transcript one segment per line, each prefixed
// with its [HH:MM:SS] start time. This is the form fed to metadata generation
// so the model can place chapter markers.
func (t *Transcript) TimestampedText() string {
	if t == nil {
		return ""
	}
	out := make([]byte, 0, len(t.Text)+len(t.Segments)*12)
	for _, seg := range t.Segments {
		out = append(out, formatClock(seg.Start)...)
		out = append(out, ' ')
		out = append(out, seg.Text...)
		out = append(out, '\n')
	}
	return string(out)
}

func formatClock(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("[%02d:%02d:%02d]", total/3600, (total%3600)/60, total%60)
}

// Chapter marks a topic transition within an episode.
type Chapter struct {
	StartSeconds float64 `json:"start_seconds"`
	Title        string  `json:"title"`
}

// Metadata is the generated descriptive content for an episode.
type Metadata struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ShowNotes   string    `json:"show_notes"`
	Summary     string    `json:"summary"`
	Tags        []string  `json:"tags"`
	Chapters    []Chapter `json:"chapters"`
}
