// Package video prepares episode video for upload, re-encoding only when the
// source does not already satisfy the delivery profile.
package video

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/media/ffprobe"
	"github.com/benrubinchik/podflow/internal/services"
)

// Options configures the delivery profile.
type Options struct {
	FFmpeg       string
	FFprobe      string
	Codec        string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string
	MaxWidth     int
	MaxHeight    int
}

func (o *Options) normalize() {
	if o.FFmpeg == "" {
		o.FFmpeg = "ffmpeg"
	}
	if o.FFprobe == "" {
		o.FFprobe = "ffprobe"
	}
	if o.Codec == "" {
		o.Codec = "libx264"
	}
	if o.Preset == "" {
		o.Preset = "medium"
	}
	if o.CRF == 0 {
		o.CRF = 23
	}
	if o.AudioCodec == "" {
		o.AudioCodec = "aac"
	}
	if o.AudioBitrate == "" {
		o.AudioBitrate = "192k"
	}
	if o.MaxWidth == 0 {
		o.MaxWidth = 1920
	}
	if o.MaxHeight == 0 {
		o.MaxHeight = 1080
	}
}

// Processor decides between remux and re-encode and drives ffmpeg.
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

// needsReencode reports whether the source stream falls outside the upload
// profile. Compliant h264/yuv420p video within the size bounds is remuxed
// with the streams copied, which is close to free.
func needsReencode(stream ffprobe.Stream, opts Options) (bool, string) {
	if !strings.EqualFold(stream.CodecName, "h264") {
		return true, fmt.Sprintf("codec %s", stream.CodecName)
	}
	if stream.PixelFormat != "" && !strings.EqualFold(stream.PixelFormat, "yuv420p") {
		return true, fmt.Sprintf("pixel format %s", stream.PixelFormat)
	}
	if stream.Width > opts.MaxWidth || stream.Height > opts.MaxHeight {
		return true, fmt.Sprintf("resolution %dx%d", stream.Width, stream.Height)
	}
	return false, ""
}

// Probe inspects the input and returns its first video stream, if any.
// Audio-only recordings legitimately have none.
func (p *Processor) Probe(ctx context.Context, input string) (ffprobe.Stream, bool, error) {
	probe, err := ffprobe.Inspect(ctx, p.opts.FFprobe, input)
	if err != nil {
		return ffprobe.Stream{}, false, services.Wrap(services.ErrExternalTool, "process_video", "probe",
			"could not inspect source video", err)
	}
	stream, ok := probe.FirstVideoStream()
	return stream, ok, nil
}

// Prepare writes an upload-ready MP4 to output. It returns whether a full
// re-encode was required.
func (p *Processor) Prepare(ctx context.Context, stream ffprobe.Stream, input, output string) (bool, error) {
	reencode, reason := needsReencode(stream, p.opts)
	var args []string
	if reencode {
		p.logger.Info("re-encoding video", logging.String("reason", reason))
		args = p.encodeArgs(input, output)
	} else {
		p.logger.Info("remuxing video", logging.String("codec", stream.CodecName))
		args = p.remuxArgs(input, output)
	}

	cmd := exec.CommandContext(ctx, p.opts.FFmpeg, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return reencode, services.Wrap(services.ErrExternalTool, "process_video", "encode",
			fmt.Sprintf("ffmpeg failed: %s", tail(string(out), 512)), err)
	}
	return reencode, nil
}

func (p *Processor) remuxArgs(input, output string) []string {
	return []string{
		"-y", "-hide_banner", "-nostdin",
		"-i", input,
		"-c", "copy",
		"-movflags", "+faststart",
		output,
	}
}

func (p *Processor) encodeArgs(input, output string) []string {
	scale := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		p.opts.MaxWidth, p.opts.MaxHeight, p.opts.MaxWidth, p.opts.MaxHeight,
	)
	return []string{
		"-y", "-hide_banner", "-nostdin",
		"-i", input,
		"-vf", scale,
		"-c:v", p.opts.Codec,
		"-preset", p.opts.Preset,
		"-crf", fmt.Sprintf("%d", p.opts.CRF),
		"-pix_fmt", "yuv420p",
		"-c:a", p.opts.AudioCodec,
		"-b:a", p.opts.AudioBitrate,
		"-movflags", "+faststart",
		output,
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
