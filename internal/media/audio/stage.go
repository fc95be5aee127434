package audio

import (
	"context"
	"log/slog"

	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/identity"
	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/media/ffprobe"
	"github.com/benrubinchik/podflow/internal/services"
	"github.com/benrubinchik/podflow/internal/state"
)

// Stage extracts and normalizes the episode audio track.
type Stage struct {
	processor *Processor
	layout    identity.Layout
	ffprobe   string
	logger    *slog.Logger
}

// NewStage constructs the process_audio stage.
func NewStage(processor *Processor, layout identity.Layout, ffprobeBinary string) *Stage {
	return &Stage{
		processor: processor,
		layout:    layout,
		ffprobe:   ffprobeBinary,
		logger:    logging.NewNop(),
	}
}

func (s *Stage) Name() string { return state.StageProcessAudio }

func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
		s.processor.logger = logger
	}
}

func (s *Stage) Run(ctx context.Context, ep *episode.Episode) (state.Outputs, error) {
	output := s.layout.AudioPath()
	if err := s.processor.Transcode(ctx, ep.InputFile, output); err != nil {
		return nil, err
	}

	probe, err := ffprobe.Inspect(ctx, s.ffprobe, output)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, s.Name(), "probe",
			"could not inspect encoded audio", err)
	}

	ep.AudioFile = output
	ep.AudioDurationSeconds = probe.DurationSeconds()

	s.logger.Info("audio processed",
		logging.String("audio_file", output),
		logging.Float64("duration_seconds", ep.AudioDurationSeconds))

	return state.Outputs{
		"audio_file":             output,
		"audio_duration_seconds": ep.AudioDurationSeconds,
	}, nil
}

func (s *Stage) Restore(_ context.Context, ep *episode.Episode, outputs state.Outputs) error {
	ep.AudioFile = outputs.String("audio_file")
	ep.AudioDurationSeconds = outputs.Float("audio_duration_seconds")
	return nil
}
