package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/benrubinchik/podflow/internal/config"
)

// Requirement defines an external tool podflow shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a tool.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ForConfig derives the tool requirements implied by the configuration.
// Only backends and hosting methods that are actually selected contribute
// mandatory entries.
func ForConfig(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     fallback(cfg.Audio.FFmpegBin, "ffmpeg"),
			Description: "Audio transcoding and video preparation",
		},
		{
			Name:        "FFprobe",
			Command:     fallback(cfg.Audio.FFprobeBin, "ffprobe"),
			Description: "Media stream inspection",
		},
	}
	if cfg.Transcription.Backend == "whisper_local" {
		reqs = append(reqs, Requirement{
			Name:        "Whisper",
			Command:     cfg.Transcription.WhisperBin,
			Description: "Local speech-to-text backend",
		})
	}
	if cfg.Hosting.Method == "scp" {
		reqs = append(reqs, Requirement{
			Name:        "scp",
			Command:     "scp",
			Description: "Audio hosting transfer",
		})
	}
	return reqs
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
