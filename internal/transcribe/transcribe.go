// Package transcribe turns episode audio into a timestamped transcript using
// either the hosted Whisper API or a local whisper executable.
package transcribe

import (
	"context"
	"fmt"
	"strings"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/services"
)

// Transcriber produces a transcript from an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*episode.Transcript, error)
}

// New selects a backend from configuration.
func New(cfg config.Transcription) (Transcriber, error) {
	switch strings.TrimSpace(cfg.Backend) {
	case "whisper_api":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, services.Wrap(services.ErrConfiguration, "transcribe", "init",
				"whisper_api backend requires an api key (set transcription.api_key or OPENAI_API_KEY)", nil)
		}
		return NewAPITranscriber(cfg), nil
	case "whisper_local":
		return NewLocalTranscriber(cfg), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "init",
			fmt.Sprintf("unknown transcription backend %q", cfg.Backend), nil)
	}
}
