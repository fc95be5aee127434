// Package identity derives stable episode identifiers and output layouts
// from input media paths. The identifier combines a sanitized base name with
// a short hash of the fully-resolved path, so re-running against the same
// file always lands in the same place while files that merely share a base
// name never collide.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	maxNameLength = 200
	hashLength    = 8
)

var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*[:cntrl:]]`)

// SanitizeName strips filesystem-unsafe characters, collapses whitespace to a
// single underscore, trims leading/trailing separators, and caps length.
func SanitizeName(name string) string {
	name = norm.NFKC.String(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Join(strings.Fields(name), "_")
	name = strings.Trim(name, "._")
	if runes := []rune(name); len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}
	return name
}

// EpisodeID generates a stable episode identifier from the input file path.
// The path is resolved to an absolute form before hashing so relative and
// absolute references to the same file agree.
func EpisodeID(inputPath string) (string, error) {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return "", fmt.Errorf("resolve input path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	safe := SanitizeName(stem)
	if safe == "" {
		safe = "episode"
	}

	sum := sha256.Sum256([]byte(abs))
	short := hex.EncodeToString(sum[:])[:hashLength]
	return safe + "_" + short, nil
}

// Layout describes the per-episode output locations under an output root.
type Layout struct {
	EpisodeID string
	Dir       string
}

// NewLayout computes the layout for an episode and creates its output
// directory if absent. Directory creation is the only side effect and is
// idempotent.
func NewLayout(outputRoot, episodeID string) (Layout, error) {
	dir := filepath.Join(outputRoot, episodeID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Layout{}, fmt.Errorf("create episode directory: %w", err)
	}
	return Layout{EpisodeID: episodeID, Dir: dir}, nil
}

// AudioPath returns the published MP3 location.
func (l Layout) AudioPath() string {
	return filepath.Join(l.Dir, l.EpisodeID+".mp3")
}

// VideoPath returns the YouTube-bound MP4 location.
func (l Layout) VideoPath() string {
	return filepath.Join(l.Dir, l.EpisodeID+".mp4")
}

// TranscriptPath returns the timestamped transcript JSON location.
func (l Layout) TranscriptPath() string {
	return filepath.Join(l.Dir, l.EpisodeID+"_transcript.json")
}

// MetadataPath returns the generated metadata JSON location.
func (l Layout) MetadataPath() string {
	return filepath.Join(l.Dir, l.EpisodeID+"_metadata.json")
}
