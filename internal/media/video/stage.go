package video

import (
	"context"
	"log/slog"

	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/identity"
	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/state"
)

// Stage produces the upload-ready episode video.
type Stage struct {
	processor *Processor
	layout    identity.Layout
	logger    *slog.Logger
}

// NewStage constructs the process_video stage.
func NewStage(processor *Processor, layout identity.Layout) *Stage {
	return &Stage{processor: processor, layout: layout, logger: logging.NewNop()}
}

func (s *Stage) Name() string { return state.StageProcessVideo }

func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
		s.processor.logger = logger
	}
}

// Run prepares the upload video. An input with no video track completes with
// empty outputs; the upload stage later skips itself when no video file was
// produced.
func (s *Stage) Run(ctx context.Context, ep *episode.Episode) (state.Outputs, error) {
	stream, hasVideo, err := s.processor.Probe(ctx, ep.InputFile)
	if err != nil {
		return nil, err
	}
	if !hasVideo {
		s.logger.Info("input has no video track; skipping video processing")
		return state.Outputs{}, nil
	}

	output := s.layout.VideoPath()
	reencoded, err := s.processor.Prepare(ctx, stream, ep.InputFile, output)
	if err != nil {
		return nil, err
	}
	ep.VideoFile = output
	s.logger.Info("video processed",
		logging.String("video_file", output),
		logging.Bool("reencoded", reencoded))
	return state.Outputs{
		"video_file": output,
		"reencoded":  reencoded,
	}, nil
}

func (s *Stage) Restore(_ context.Context, ep *episode.Episode, outputs state.Outputs) error {
	ep.VideoFile = outputs.String("video_file")
	return nil
}
