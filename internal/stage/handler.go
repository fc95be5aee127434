// Package stage defines the contract every pipeline stage implements.
package stage

import (
	"context"
	"log/slog"

	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/state"
)

// Handler is one step of the episode pipeline. Run performs the stage's work
// against the episode aggregate and returns the outputs to persist. Restore
// rebuilds the aggregate fields a later stage needs from outputs persisted by
// a previous run, without redoing the work.
type Handler interface {
	Name() string
	Run(context.Context, *episode.Episode) (state.Outputs, error)
	Restore(context.Context, *episode.Episode, state.Outputs) error
}

// LoggerAware lets the pipeline hand stages a logger scoped with episode and
// stage fields before Run is invoked.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
