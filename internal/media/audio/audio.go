// Package audio extracts and normalizes episode audio with ffmpeg using
// two-pass loudness normalization.
package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/services"
)

// Options configures the audio transcode.
type Options struct {
	FFmpeg        string
	Codec         string
	Bitrate       string
	Channels      int
	SampleRate    int
	TargetLUFS    float64
	TruePeak      float64
	LoudnessRange float64
}

func (o *Options) normalize() {
	if o.FFmpeg == "" {
		o.FFmpeg = "ffmpeg"
	}
	if o.Codec == "" {
		o.Codec = "libmp3lame"
	}
	if o.Bitrate == "" {
		o.Bitrate = "128k"
	}
	if o.Channels == 0 {
		o.Channels = 1
	}
	if o.SampleRate == 0 {
		o.SampleRate = 44100
	}
	if o.TargetLUFS == 0 {
		o.TargetLUFS = -16
	}
	if o.TruePeak == 0 {
		o.TruePeak = -1.5
	}
	if o.LoudnessRange == 0 {
		o.LoudnessRange = 11
	}
}

// loudnormStats is the measurement block ffmpeg prints after the first pass.
type loudnormStats struct {
	InputI      string `json:"input_i"`
	InputTP     string `json:"input_tp"`
	InputLRA    string `json:"input_lra"`
	InputThresh string `json:"input_thresh"`
	TargetOff   string `json:"target_offset"`
}

// Processor runs the two-pass loudnorm transcode.
type Processor struct {
	opts   Options
	logger *slog.Logger
}

// NewProcessor returns a Processor with defaults filled in.
func NewProcessor(opts Options, logger *slog.Logger) *Processor {
	opts.normalize()
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{opts: opts, logger: logger}
}

// Transcode extracts the audio track from input, measures its loudness, and
// writes a normalized encode to output. The measurement pass discards its
// media output; the second pass feeds the measured values back into loudnorm
// so normalization is linear instead of dynamic.
func (p *Processor) Transcode(ctx context.Context, input, output string) error {
	stats, err := p.measure(ctx, input)
	if err != nil {
		return err
	}

	filter := encodeFilter(p.opts, stats)
	args := []string{
		"-y", "-hide_banner", "-nostdin",
		"-i", input,
		"-vn",
		"-af", filter,
		"-ar", fmt.Sprintf("%d", p.opts.SampleRate),
		"-ac", fmt.Sprintf("%d", p.opts.Channels),
		"-c:a", p.opts.Codec,
		"-b:a", p.opts.Bitrate,
		output,
	}

	p.logger.Debug("audio encode pass", logging.String("filter", filter))
	cmd := exec.CommandContext(ctx, p.opts.FFmpeg, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return services.Wrap(services.ErrExternalTool, "process_audio", "encode",
			fmt.Sprintf("ffmpeg encode failed: %s", tail(string(out), 512)), err)
	}
	return nil
}

func (p *Processor) measure(ctx context.Context, input string) (loudnormStats, error) {
	filter := fmt.Sprintf("loudnorm=I=%g:TP=%g:LRA=%g:print_format=json",
		p.opts.TargetLUFS, p.opts.TruePeak, p.opts.LoudnessRange)
	args := []string{
		"-hide_banner", "-nostdin",
		"-i", input,
		"-vn",
		"-af", filter,
		"-f", "null", "-",
	}
	cmd := exec.CommandContext(ctx, p.opts.FFmpeg, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return loudnormStats{}, services.Wrap(services.ErrExternalTool, "process_audio", "measure",
			fmt.Sprintf("ffmpeg loudness measurement failed: %s", tail(string(out), 512)), err)
	}
	stats, err := parseLoudnorm(string(out))
	if err != nil {
		return loudnormStats{}, services.Wrap(services.ErrExternalTool, "process_audio", "measure",
			"could not parse loudness measurement", err)
	}
	return stats, nil
}

func encodeFilter(opts Options, stats loudnormStats) string {
	return fmt.Sprintf(
		"loudnorm=I=%g:TP=%g:LRA=%g:measured_I=%s:measured_TP=%s:measured_LRA=%s:measured_thresh=%s:offset=%s:linear=true",
		opts.TargetLUFS, opts.TruePeak, opts.LoudnessRange,
		stats.InputI, stats.InputTP, stats.InputLRA, stats.InputThresh, stats.TargetOff,
	)
}

// parseLoudnorm locates the JSON block loudnorm prints at the end of the
// ffmpeg stderr stream and decodes it.
func parseLoudnorm(output string) (loudnormStats, error) {
	start := strings.LastIndex(output, "{")
	end := strings.LastIndex(output, "}")
	if start == -1 || end == -1 || end < start {
		return loudnormStats{}, fmt.Errorf("no loudnorm JSON block in ffmpeg output")
	}
	var stats loudnormStats
	if err := json.Unmarshal([]byte(output[start:end+1]), &stats); err != nil {
		return loudnormStats{}, fmt.Errorf("decode loudnorm block: %w", err)
	}
	if stats.InputI == "" {
		return loudnormStats{}, fmt.Errorf("loudnorm block missing input_i")
	}
	return stats, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
