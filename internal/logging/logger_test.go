package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/benrubinchik/podflow/internal/services"
)

func TestConsoleHandlerRendersAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("stage started", String(FieldStage, "process_audio"), Int("attempt", 1))

	out := buf.String()
	if !strings.Contains(out, "INF stage started") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "stage=process_audio") || !strings.Contains(out, "attempt=1") {
		t.Fatalf("missing attrs in output: %q", out)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("ignored")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "ignored") {
		t.Fatalf("info record should have been filtered: %q", out)
	}
	if !strings.Contains(out, "WRN kept") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	ctx := services.WithEpisodeID(context.Background(), "ep_abc12345")
	ctx = services.WithStage(ctx, "transcribe")

	WithContext(ctx, logger).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "episode_id=ep_abc12345") || !strings.Contains(out, "stage=transcribe") {
		t.Fatalf("context fields missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
