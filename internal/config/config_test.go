package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Transcription.Backend != "whisper_api" {
		t.Fatalf("unexpected default backend: %q", cfg.Transcription.Backend)
	}
	if cfg.YouTube.ChunkSizeMiB != 10 || cfg.YouTube.MaxRetries != 5 {
		t.Fatalf("unexpected upload defaults: %d MiB, %d retries", cfg.YouTube.ChunkSizeMiB, cfg.YouTube.MaxRetries)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "podflow.toml")
	content := `
[paths]
output_dir = "` + filepath.Join(dir, "out") + `"

[audio]
bitrate = "192k"
channels = 2

[hosting]
method = "s3"
s3_bucket = "cast"
s3_public_url_base = "https://cdn.example.com/"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected config to be found, got exists=%v path=%q", exists, resolved)
	}
	if cfg.Audio.Bitrate != "192k" || cfg.Audio.Channels != 2 {
		t.Fatalf("audio overrides not applied: %+v", cfg.Audio)
	}
	if cfg.Hosting.Method != "s3" || cfg.Hosting.S3Bucket != "cast" {
		t.Fatalf("hosting overrides not applied: %+v", cfg.Hosting)
	}
	if strings.HasSuffix(cfg.Hosting.S3PublicURLBase, "/") {
		t.Fatalf("public url base should be trimmed: %q", cfg.Hosting.S3PublicURLBase)
	}
	if cfg.Video.Codec != "libx264" {
		t.Fatalf("untouched sections should keep defaults, got %q", cfg.Video.Codec)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Feed.Title != "My Podcast" {
		t.Fatalf("expected defaults, got %q", cfg.Feed.Title)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad backend", func(c *Config) { c.Transcription.Backend = "deepgram" }},
		{"bad privacy", func(c *Config) { c.YouTube.Privacy = "secret" }},
		{"s3 without bucket", func(c *Config) { c.Hosting.Method = "s3"; c.Hosting.S3Bucket = "" }},
		{"scp without host", func(c *Config) { c.Hosting.Method = "scp" }},
		{"positive lufs", func(c *Config) { c.Audio.TargetLUFS = 3 }},
		{"crf out of range", func(c *Config) { c.Video.CRF = 99 }},
		{"empty feed title", func(c *Config) { c.Feed.Title = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[feed]") {
		t.Fatal("sample config missing feed section")
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/podcasts")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "podcasts") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
