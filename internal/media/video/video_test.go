package video

import (
	"strings"
	"testing"

	"github.com/benrubinchik/podflow/internal/media/ffprobe"
)

func defaultOpts() Options {
	var opts Options
	opts.normalize()
	return opts
}

func TestNeedsReencode(t *testing.T) {
	opts := defaultOpts()
	tests := []struct {
		name   string
		stream ffprobe.Stream
		want   bool
	}{
		{"compliant h264", ffprobe.Stream{CodecName: "h264", PixelFormat: "yuv420p", Width: 1920, Height: 1080}, false},
		{"smaller than max", ffprobe.Stream{CodecName: "h264", PixelFormat: "yuv420p", Width: 1280, Height: 720}, false},
		{"missing pix_fmt tolerated", ffprobe.Stream{CodecName: "h264", Width: 1920, Height: 1080}, false},
		{"hevc source", ffprobe.Stream{CodecName: "hevc", PixelFormat: "yuv420p", Width: 1920, Height: 1080}, true},
		{"10-bit source", ffprobe.Stream{CodecName: "h264", PixelFormat: "yuv420p10le", Width: 1920, Height: 1080}, true},
		{"4k source", ffprobe.Stream{CodecName: "h264", PixelFormat: "yuv420p", Width: 3840, Height: 2160}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, reason := needsReencode(tc.stream, opts)
			if got != tc.want {
				t.Fatalf("needsReencode = %v (%s), want %v", got, reason, tc.want)
			}
			if got && reason == "" {
				t.Fatalf("re-encode decision should carry a reason")
			}
		})
	}
}

func TestRemuxArgsCopyStreams(t *testing.T) {
	p := NewProcessor(Options{}, nil)
	args := strings.Join(p.remuxArgs("/in/ep.mov", "/out/ep.mp4"), " ")
	if !strings.Contains(args, "-c copy") {
		t.Fatalf("remux should copy streams: %s", args)
	}
	if !strings.Contains(args, "-movflags +faststart") {
		t.Fatalf("remux should set faststart: %s", args)
	}
}

func TestEncodeArgsProfile(t *testing.T) {
	p := NewProcessor(Options{CRF: 20, Preset: "slow"}, nil)
	args := strings.Join(p.encodeArgs("/in/ep.mkv", "/out/ep.mp4"), " ")
	for _, want := range []string{
		"-c:v libx264",
		"-preset slow",
		"-crf 20",
		"-pix_fmt yuv420p",
		"-c:a aac",
		"-b:a 192k",
		"-movflags +faststart",
		"force_original_aspect_ratio=decrease",
	} {
		if !strings.Contains(args, want) {
			t.Fatalf("encode args missing %q: %s", want, args)
		}
	}
}
