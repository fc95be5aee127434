package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Path returns the state document location for an episode under outputRoot.
func Path(outputRoot, episodeID string) string {
	return filepath.Join(outputRoot, ".podflow_state_"+episodeID+".json")
}

// Load reads the persisted state for an episode. A missing file yields a
// fresh all-pending state; a file that exists but cannot be parsed is a hard
// error, never silently reset, so a corrupted record is surfaced instead of
// triggering an accidental full re-run.
func Load(outputRoot, episodeID string) (*PipelineState, error) {
	path := Path(outputRoot, episodeID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(episodeID), nil
		}
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}
	var s PipelineState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	if s.EpisodeID == "" {
		s.EpisodeID = episodeID
	}
	s.ensureStages()
	return &s, nil
}

// Save persists the state atomically. The document is written to a temp file
// in the same directory and renamed into place so readers never observe a
// partially written record.
func Save(outputRoot string, s *PipelineState) error {
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return fmt.Errorf("create output root %s: %w", outputRoot, err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	path := Path(outputRoot, s.EpisodeID)
	tmp, err := os.CreateTemp(outputRoot, ".podflow_state_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state %s: %w", path, err)
	}
	return nil
}

// Remove deletes a persisted state document. Missing files are not an error.
func Remove(outputRoot, episodeID string) error {
	err := os.Remove(Path(outputRoot, episodeID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
