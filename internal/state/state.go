// Package state models the durable per-episode pipeline record. One JSON
// document per episode tracks each stage's status, error, and output values
// so an interrupted run can resume without redoing completed work.
package state

import (
	"fmt"
	"math"
)

// Status is the lifecycle state of a single pipeline stage.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// StageNames is the fixed, ordered pipeline contract. Stage N may assume
// every earlier stage has completed (or been validly skipped).
var StageNames = []string{
	StageProcessAudio,
	StageProcessVideo,
	StageTranscribe,
	StageGenerateMetadata,
	StageUploadYouTube,
	StageHostAudio,
	StageUpdateFeed,
}

const (
	StageProcessAudio     = "process_audio"
	StageProcessVideo     = "process_video"
	StageTranscribe       = "transcribe"
	StageGenerateMetadata = "generate_metadata"
	StageUploadYouTube    = "upload_youtube"
	StageHostAudio        = "host_audio"
	StageUpdateFeed       = "update_feed"
)

// Outputs holds a stage's declared output values. Only JSON-serializable
// primitives belong here (paths, URLs, byte counts, durations, IDs), never
// live objects, so outputs survive persistence and can reconstruct results
// without re-running the stage.
type Outputs map[string]any

// String returns the string value for key, or "" when absent or of another type.
func (o Outputs) String(key string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return ""
}

// Float returns the numeric value for key. JSON numbers decode as float64;
// values recorded in-process as ints are accepted too.
func (o Outputs) Float(key string) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Int64 returns the integer value for key, truncating JSON float decoding.
func (o Outputs) Int64(key string) int64 {
	f := o.Float(key)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

// StageState is the persisted record for one stage.
type StageState struct {
	Status  Status  `json:"status"`
	Error   string  `json:"error,omitempty"`
	Outputs Outputs `json:"outputs"`
}

// PipelineState is the durable record for one episode run. The stages map
// always contains exactly the fixed ordered stage names, created eagerly on
// construction. A missing stage name is never a valid state.
type PipelineState struct {
	EpisodeID string                 `json:"episode_id"`
	InputFile string                 `json:"input_file"`
	Stages    map[string]*StageState `json:"stages"`
}

// New returns a fresh state with every known stage pending.
func New(episodeID string) *PipelineState {
	s := &PipelineState{
		EpisodeID: episodeID,
		Stages:    make(map[string]*StageState, len(StageNames)),
	}
	s.ensureStages()
	return s
}

func (s *PipelineState) ensureStages() {
	if s.Stages == nil {
		s.Stages = make(map[string]*StageState, len(StageNames))
	}
	for _, name := range StageNames {
		if s.Stages[name] == nil {
			s.Stages[name] = &StageState{Status: StatusPending, Outputs: Outputs{}}
		} else if s.Stages[name].Outputs == nil {
			s.Stages[name].Outputs = Outputs{}
		}
	}
}

// Stage returns the record for a known stage name.
func (s *PipelineState) Stage(name string) (*StageState, error) {
	st, ok := s.Stages[name]
	if !ok {
		return nil, fmt.Errorf("unknown stage %q", name)
	}
	return st, nil
}

// SetRunning marks a stage running and clears any prior error.
func (s *PipelineState) SetRunning(name string) {
	if st := s.Stages[name]; st != nil {
		st.Status = StatusRunning
		st.Error = ""
	}
}

// SetCompleted marks a stage completed, records its outputs, and clears any
// prior error. A nil outputs map preserves the previously recorded outputs.
func (s *PipelineState) SetCompleted(name string, outputs Outputs) {
	st := s.Stages[name]
	if st == nil {
		return
	}
	st.Status = StatusCompleted
	st.Error = ""
	if outputs != nil {
		st.Outputs = outputs
	}
}

// SetFailed marks a stage failed with the supplied message.
func (s *PipelineState) SetFailed(name, message string) {
	if st := s.Stages[name]; st != nil {
		st.Status = StatusFailed
		st.Error = message
	}
}

// SetSkipped marks a stage intentionally bypassed by policy.
func (s *PipelineState) SetSkipped(name string) {
	if st := s.Stages[name]; st != nil {
		st.Status = StatusSkipped
	}
}

// IsCompleted reports whether the named stage finished successfully.
func (s *PipelineState) IsCompleted(name string) bool {
	st := s.Stages[name]
	return st != nil && st.Status == StatusCompleted
}

// FirstIncomplete returns the first stage, in pipeline order, whose status is
// neither completed nor skipped. The boolean is false when every stage is
// terminal-complete.
func (s *PipelineState) FirstIncomplete() (string, bool) {
	for _, name := range StageNames {
		st := s.Stages[name]
		if st == nil {
			return name, true
		}
		if st.Status != StatusCompleted && st.Status != StatusSkipped {
			return name, true
		}
	}
	return "", false
}
