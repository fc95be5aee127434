package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/identity"
	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/services"
	"github.com/benrubinchik/podflow/internal/stage"
	"github.com/benrubinchik/podflow/internal/state"
)

// Completer is the LLM surface the stage depends on.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Stage generates and persists episode metadata from the transcript.
type Stage struct {
	client Completer
	cfg    config.Metadata
	layout identity.Layout
	logger *slog.Logger
}

// NewStage constructs the generate_metadata stage.
func NewStage(client Completer, cfg config.Metadata, layout identity.Layout) *Stage {
	return &Stage{client: client, cfg: cfg, layout: layout, logger: logging.NewNop()}
}

func (s *Stage) Name() string { return state.StageGenerateMetadata }

func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// HealthCheck verifies the LLM connection is configured before the stage runs.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return stage.Unhealthy(s.Name(), "metadata.api_key is not set and ANTHROPIC_API_KEY is empty")
	}
	return stage.Healthy(s.Name())
}

func (s *Stage) Run(ctx context.Context, ep *episode.Episode) (state.Outputs, error) {
	if ep.Transcript == nil {
		return nil, services.Wrap(services.ErrValidation, s.Name(), "run",
			"no transcript available; transcribe must complete first", nil)
	}

	userPrompt := buildUserPrompt(ep.Transcript.TimestampedText(), ep.Number, s.cfg.MaxTags, s.cfg.GenerateChapters)
	content, err := s.client.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var meta episode.Metadata
	if err := DecodeModelJSON(content, &meta); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, s.Name(), "decode",
			"model response was not valid metadata JSON", err)
	}
	normalizeMetadata(&meta, s.cfg)

	path := s.layout.MetadataPath()
	if err := writeMetadata(path, &meta); err != nil {
		return nil, err
	}

	ep.Metadata = &meta
	ep.MetadataFile = path
	s.logger.Info("metadata generated",
		logging.String("metadata_file", path),
		logging.String("title", meta.Title),
		logging.Int("tags", len(meta.Tags)),
		logging.Int("chapters", len(meta.Chapters)))

	return state.Outputs{
		"metadata_file": path,
		"title":         meta.Title,
	}, nil
}

// Restore reloads the persisted metadata document.
func (s *Stage) Restore(_ context.Context, ep *episode.Episode, outputs state.Outputs) error {
	path := outputs.String("metadata_file")
	if path == "" {
		return fmt.Errorf("metadata_file output missing")
	}
	meta, err := ReadMetadata(path)
	if err != nil {
		return err
	}
	ep.Metadata = meta
	ep.MetadataFile = path
	return nil
}

func normalizeMetadata(meta *episode.Metadata, cfg config.Metadata) {
	meta.Title = strings.TrimSpace(meta.Title)
	meta.Description = strings.TrimSpace(meta.Description)
	meta.Summary = strings.TrimSpace(meta.Summary)

	tags := meta.Tags[:0]
	seen := make(map[string]bool, len(meta.Tags))
	for _, tag := range meta.Tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	if cfg.MaxTags > 0 && len(tags) > cfg.MaxTags {
		tags = tags[:cfg.MaxTags]
	}
	meta.Tags = tags

	if !cfg.GenerateChapters {
		meta.Chapters = nil
		return
	}
	chapters := meta.Chapters[:0]
	for _, ch := range meta.Chapters {
		ch.Title = strings.TrimSpace(ch.Title)
		if ch.Title == "" || ch.StartSeconds < 0 {
			continue
		}
		chapters = append(chapters, ch)
	}
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].StartSeconds < chapters[j].StartSeconds
	})
	meta.Chapters = chapters
}

func writeMetadata(path string, meta *episode.Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata %s: %w", path, err)
	}
	return nil
}

// ReadMetadata loads a metadata JSON document from disk.
func ReadMetadata(path string) (*episode.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	var meta episode.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", path, err)
	}
	return &meta, nil
}
