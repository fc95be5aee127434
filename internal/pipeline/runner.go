// Package pipeline orchestrates the ordered episode stages with durable
// state, resume support, and halt-on-failure semantics.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/services"
	"github.com/benrubinchik/podflow/internal/stage"
	"github.com/benrubinchik/podflow/internal/state"
)

// Runner drives an episode through the fixed stage order, persisting state
// after every transition so a crash at any point leaves a resumable record.
type Runner struct {
	OutputRoot string
	EpisodeID  string
	Handlers   []stage.Handler
	Logger     *slog.Logger
}

// Options controls a single Run invocation.
type Options struct {
	// Resume loads persisted state and skips completed stages, restoring
	// their outputs into the episode aggregate. Without it a fresh state
	// replaces any prior record.
	Resume bool
}

// Run executes the pipeline. It returns the final state alongside any error
// so callers can report which stage halted the run.
func (r *Runner) Run(ctx context.Context, ep *episode.Episode, opts Options) (*state.PipelineState, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.OutputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	lock := flock.New(lockPath(r.OutputRoot, r.EpisodeID))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire episode lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "lock",
			fmt.Sprintf("another run is already processing episode %s", r.EpisodeID), nil)
	}
	defer lock.Unlock()

	ctx = services.WithEpisodeID(ctx, r.EpisodeID)
	ctx = services.WithRequestID(ctx, uuid.NewString())

	st, err := r.loadState(opts.Resume)
	if err != nil {
		return nil, err
	}
	st.InputFile = ep.InputFile

	logger := r.logger()
	logger = logging.WithContext(ctx, logger)

	for _, handler := range r.Handlers {
		name := handler.Name()
		record, err := st.Stage(name)
		if err != nil {
			return st, err
		}

		if opts.Resume && record.Status == state.StatusCompleted {
			if err := handler.Restore(ctx, ep, record.Outputs); err != nil {
				return st, services.Wrap(services.ErrValidation, name, "restore",
					"persisted outputs could not be restored", err)
			}
			logger.Info("stage skipped",
				logging.String(logging.FieldEventType, "stage_skip"),
				logging.String(logging.FieldStage, name))
			continue
		}
		if record.Status == state.StatusSkipped {
			logger.Info("stage skipped by policy",
				logging.String(logging.FieldEventType, "stage_skip"),
				logging.String(logging.FieldStage, name))
			continue
		}

		if err := r.executeStage(ctx, logger, st, handler, ep); err != nil {
			return st, err
		}
	}

	return st, nil
}

func (r *Runner) executeStage(ctx context.Context, logger *slog.Logger, st *state.PipelineState, handler stage.Handler, ep *episode.Episode) error {
	name := handler.Name()
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, logger)
	if aware, ok := handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	if checker, ok := handler.(stage.HealthChecker); ok {
		if health := checker.HealthCheck(stageCtx); !health.Ready {
			healthErr := services.Wrap(services.ErrConfiguration, name, "health-check",
				health.Detail, nil)
			st.SetFailed(name, services.Message(healthErr))
			if err := state.Save(r.OutputRoot, st); err != nil {
				stageLogger.Error("failed to persist stage failure", logging.Error(err))
			}
			return healthErr
		}
	}

	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("source_file", strings.TrimSpace(ep.InputFile)))

	st.SetRunning(name)
	if err := state.Save(r.OutputRoot, st); err != nil {
		return fmt.Errorf("persist running transition: %w", err)
	}

	outputs, runErr := handler.Run(stageCtx, ep)
	if runErr != nil {
		st.SetFailed(name, services.Message(runErr))
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Error(runErr))
		if err := state.Save(r.OutputRoot, st); err != nil {
			stageLogger.Error("failed to persist stage failure", logging.Error(err))
		}
		return runErr
	}

	st.SetCompleted(name, outputs)
	if err := state.Save(r.OutputRoot, st); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"))
	return nil
}

func (r *Runner) loadState(resume bool) (*state.PipelineState, error) {
	if !resume {
		return state.New(r.EpisodeID), nil
	}
	return state.Load(r.OutputRoot, r.EpisodeID)
}

func (r *Runner) validate() error {
	if r.OutputRoot == "" {
		return fmt.Errorf("output root is required")
	}
	if r.EpisodeID == "" {
		return fmt.Errorf("episode id is required")
	}
	if len(r.Handlers) == 0 {
		return fmt.Errorf("no stage handlers configured")
	}
	seen := make(map[string]bool, len(r.Handlers))
	for _, h := range r.Handlers {
		name := h.Name()
		if !knownStage(name) {
			return fmt.Errorf("unknown stage %q", name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate stage %q", name)
		}
		seen[name] = true
	}
	return nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func knownStage(name string) bool {
	for _, s := range state.StageNames {
		if s == name {
			return true
		}
	}
	return false
}

func lockPath(outputRoot, episodeID string) string {
	return filepath.Join(outputRoot, ".podflow_lock_"+episodeID)
}
