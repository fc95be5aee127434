package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/identity"
	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/services"
	"github.com/benrubinchik/podflow/internal/state"
)

// Stage produces and persists the episode transcript.
type Stage struct {
	transcriber Transcriber
	layout      identity.Layout
	logger      *slog.Logger
}

// NewStage constructs the transcribe stage.
func NewStage(transcriber Transcriber, layout identity.Layout) *Stage {
	return &Stage{transcriber: transcriber, layout: layout, logger: logging.NewNop()}
}

func (s *Stage) Name() string { return state.StageTranscribe }

func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *Stage) Run(ctx context.Context, ep *episode.Episode) (state.Outputs, error) {
	if ep.AudioFile == "" {
		return nil, services.Wrap(services.ErrValidation, s.Name(), "run",
			"no processed audio available; process_audio must complete first", nil)
	}

	transcript, err := s.transcriber.Transcribe(ctx, ep.AudioFile)
	if err != nil {
		return nil, err
	}

	path := s.layout.TranscriptPath()
	if err := writeTranscript(path, transcript); err != nil {
		return nil, err
	}

	ep.Transcript = transcript
	ep.TranscriptFile = path
	s.logger.Info("transcription complete",
		logging.String("transcript_file", path),
		logging.String("language", transcript.Language),
		logging.Int("segments", len(transcript.Segments)))

	return state.Outputs{
		"transcript_file": path,
		"language":        transcript.Language,
	}, nil
}

// Restore reloads the persisted transcript so later stages can use it
// without re-running transcription.
func (s *Stage) Restore(_ context.Context, ep *episode.Episode, outputs state.Outputs) error {
	path := outputs.String("transcript_file")
	if path == "" {
		return fmt.Errorf("transcript_file output missing")
	}
	transcript, err := ReadTranscript(path)
	if err != nil {
		return err
	}
	ep.Transcript = transcript
	ep.TranscriptFile = path
	return nil
}

func writeTranscript(path string, transcript *episode.Transcript) error {
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript %s: %w", path, err)
	}
	return nil
}

// ReadTranscript loads a transcript JSON document from disk.
func ReadTranscript(path string) (*episode.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript %s: %w", path, err)
	}
	var transcript episode.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", path, err)
	}
	return &transcript, nil
}
