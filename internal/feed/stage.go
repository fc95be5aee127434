package feed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/benrubinchik/podflow/internal/catalog"
	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/services"
	"github.com/benrubinchik/podflow/internal/state"
)

// Publisher uploads the regenerated feed document to the hosting target.
type Publisher interface {
	Host(ctx context.Context, localPath, remoteName string) (string, error)
}

// Stage records the episode in the catalog and regenerates the feed.
type Stage struct {
	store     *catalog.Store
	generator *Generator
	feedPath  string
	episodeID string
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewStage constructs the update_feed stage.
func NewStage(store *catalog.Store, cfg config.Feed, feedPath, episodeID string) *Stage {
	return &Stage{
		store:     store,
		generator: NewGenerator(cfg),
		feedPath:  feedPath,
		episodeID: episodeID,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
}

// SetPublisher makes the stage upload the regenerated feed after writing it
// locally. Used when audio hosting is remote (s3 or scp).
func (s *Stage) SetPublisher(p Publisher) { s.publisher = p }

func (s *Stage) Name() string { return state.StageUpdateFeed }

func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *Stage) Run(ctx context.Context, ep *episode.Episode) (state.Outputs, error) {
	if ep.AudioURL == "" {
		return nil, services.Wrap(services.ErrValidation, s.Name(), "run",
			"no hosted audio URL; host_audio must complete first", nil)
	}

	publishedAt := ep.PublishDate
	if publishedAt.IsZero() {
		publishedAt = s.now().UTC()
	}
	entry := catalog.Episode{
		EpisodeID:       s.episodeID,
		Number:          ep.Number,
		Title:           ep.Title(),
		AudioURL:        ep.AudioURL,
		AudioSizeBytes:  ep.AudioSizeBytes,
		DurationSeconds: ep.AudioDurationSeconds,
		YouTubeURL:      ep.YouTubeURL,
		PublishedAt:     publishedAt,
	}
	if ep.Metadata != nil {
		entry.Description = ep.Metadata.Description
	}
	if err := s.store.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("record episode in catalog: %w", err)
	}

	episodes, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	data, err := s.generator.Generate(episodes, s.now())
	if err != nil {
		return nil, err
	}
	issues, err := Validate(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, s.Name(), "validate",
			"generated feed failed validation", err)
	}
	for _, issue := range issues {
		if issue.Severity == "error" {
			return nil, services.Wrap(services.ErrValidation, s.Name(), "validate",
				issue.Message, nil)
		}
		s.logger.Warn("feed validation warning", logging.String("issue", issue.Message))
	}

	if err := writeAtomic(s.feedPath, data); err != nil {
		return nil, err
	}

	outputs := state.Outputs{
		"feed_file":     s.feedPath,
		"episode_count": len(episodes),
	}
	if s.publisher != nil {
		feedURL, err := s.publisher.Host(ctx, s.feedPath, filepath.Base(s.feedPath))
		if err != nil {
			return nil, err
		}
		outputs["feed_url"] = feedURL
		s.logger.Info("feed published", logging.String("feed_url", feedURL))
	}

	ep.FeedUpdated = true
	ep.PublishDate = publishedAt
	s.logger.Info("feed updated",
		logging.String("feed_file", s.feedPath),
		logging.Int("episodes", len(episodes)))

	return outputs, nil
}

func (s *Stage) Restore(_ context.Context, ep *episode.Episode, outputs state.Outputs) error {
	if outputs.String("feed_file") != "" {
		ep.FeedUpdated = true
	}
	return nil
}

// writeAtomic replaces the feed via temp file and rename so readers never
// see a torn document.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create feed directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".feed_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp feed: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close feed: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace feed %s: %w", path, err)
	}
	return nil
}
