package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/benrubinchik/podflow/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "process_audio", "loudnorm", "measure pass failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"process_audio", "loudnorm", "measure pass failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "transcribe", "request", "", errors.New("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestMessageStripsMarkerPrefix(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "upload_youtube", "prepare", "metadata missing", nil)
	msg := services.Message(err)
	if strings.HasPrefix(msg, "validation error") {
		t.Fatalf("expected marker prefix stripped, got %q", msg)
	}
	if !strings.Contains(msg, "metadata missing") {
		t.Fatalf("expected detail retained, got %q", msg)
	}
	if services.Message(nil) != "" {
		t.Fatal("expected empty message for nil error")
	}
}
