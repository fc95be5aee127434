package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/services"
)

// LocalTranscriber shells out to a local whisper executable.
type LocalTranscriber struct {
	cfg config.Transcription
}

// NewLocalTranscriber constructs the whisper_local backend.
func NewLocalTranscriber(cfg config.Transcription) *LocalTranscriber {
	if strings.TrimSpace(cfg.WhisperBin) == "" {
		cfg.WhisperBin = "whisper"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "base"
	}
	return &LocalTranscriber{cfg: cfg}
}

// Transcribe runs whisper with JSON output into a scratch directory and maps
// the result file.
func (t *LocalTranscriber) Transcribe(ctx context.Context, audioPath string) (*episode.Transcript, error) {
	outDir, err := os.MkdirTemp("", "podflow-whisper-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{
		audioPath,
		"--model", t.cfg.Model,
		"--output_format", "json",
		"--output_dir", outDir,
	}
	if lang := strings.TrimSpace(t.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	cmd := exec.CommandContext(ctx, t.cfg.WhisperBin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisper",
			fmt.Sprintf("whisper failed: %s", lastLines(string(out), 5)), err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	resultPath := filepath.Join(outDir, stem+".json")
	return readWhisperJSON(resultPath)
}

func readWhisperJSON(path string) (*episode.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisper",
			"whisper produced no JSON output", err)
	}
	var decoded verboseResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode whisper output %s: %w", path, err)
	}
	return fromVerbose(decoded), nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
