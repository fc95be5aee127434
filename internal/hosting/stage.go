package hosting

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/media/tags"
	"github.com/benrubinchik/podflow/internal/services"
	"github.com/benrubinchik/podflow/internal/state"
)

// Stage tags and publishes the episode audio.
type Stage struct {
	hoster  Hoster
	tagsCfg config.Tags
	feedCfg config.Feed
	logger  *slog.Logger
}

// NewStage constructs the host_audio stage.
func NewStage(hoster Hoster, tagsCfg config.Tags, feedCfg config.Feed) *Stage {
	return &Stage{hoster: hoster, tagsCfg: tagsCfg, feedCfg: feedCfg, logger: logging.NewNop()}
}

func (s *Stage) Name() string { return state.StageHostAudio }

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

	if s.tagsCfg.Enabled {
		if err := tags.Apply(ep.AudioFile, tags.Info{
			Title:         ep.Title(),
			Artist:        s.feedCfg.Author,
			Album:         s.feedCfg.Title,
			Genre:         "Podcast",
			Year:          time.Now().UTC().Year(),
			TrackNumber:   ep.Number,
			Comment:       episodeSummary(ep),
			PodcastMarker: true,
			ArtworkPath:   s.tagsCfg.ArtworkPath,
		}); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(ep.AudioFile)
	if err != nil {
		return nil, fmt.Errorf("stat audio %s: %w", ep.AudioFile, err)
	}

	remoteName := filepath.Base(ep.AudioFile)
	url, err := s.hoster.Host(ctx, ep.AudioFile, remoteName)
	if err != nil {
		return nil, err
	}

	ep.AudioURL = url
	ep.AudioSizeBytes = info.Size()
	s.logger.Info("audio hosted",
		logging.String("audio_url", url),
		logging.Int64("size_bytes", info.Size()))

	return state.Outputs{
		"audio_url":        url,
		"audio_size_bytes": info.Size(),
	}, nil
}

func (s *Stage) Restore(_ context.Context, ep *episode.Episode, outputs state.Outputs) error {
	ep.AudioURL = outputs.String("audio_url")
	ep.AudioSizeBytes = outputs.Int64("audio_size_bytes")
	return nil
}

func episodeSummary(ep *episode.Episode) string {
	if ep.Metadata != nil {
		return ep.Metadata.Summary
	}
	return ""
}
