package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, base string) string {
	t.Helper()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[paths]\noutput_dir = %q\nlog_dir = %q\n",
		filepath.Join(base, "output"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestInitWritesSampleConfig(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"init", "--path", target}, "")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"init", "--path", target}, ""); err == nil {
		t.Fatalf("expected error when file exists without --force")
	}
	if _, _, err := runCLI(t, []string{"init", "--path", target, "--force"}, ""); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestStatusShowsFreshPlan(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)
	input := filepath.Join(base, "episode.wav")
	if err := os.WriteFile(input, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	out, _, err := runCLI(t, []string{"status", input}, configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, stage := range []string{
		"process_audio", "process_video", "transcribe", "generate_metadata",
		"upload_youtube", "host_audio", "update_feed",
	} {
		requireContains(t, out, stage)
	}
	requireContains(t, out, "Next stage: process_audio")
}

func TestRunDryRunOnlyInspects(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)
	input := filepath.Join(base, "episode.wav")
	if err := os.WriteFile(input, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	out, _, err := runCLI(t, []string{"run", "--dry-run", input}, configPath)
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	requireContains(t, out, "process_audio")

	// Inspection must not leave pipeline state behind.
	entries, err := os.ReadDir(filepath.Join(base, "output"))
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".podflow_state_") {
			t.Fatalf("dry run wrote state file %s", entry.Name())
		}
	}
}

func TestValidateFeedCommand(t *testing.T) {
	base := t.TempDir()

	valid := filepath.Join(base, "good.xml")
	goodFeed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Show</title>
    <link>https://example.com</link>
    <description>d</description>
    <language>en</language>
    <image><url>https://example.com/a.jpg</url></image>
    <item>
      <title>Ep 1</title>
      <guid>https://cdn.example.com/1.mp3</guid>
      <pubDate>Mon, 03 Aug 2026 12:00:00 +0000</pubDate>
      <enclosure url="https://cdn.example.com/1.mp3" length="1024" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`
	if err := os.WriteFile(valid, []byte(goodFeed), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}
	out, _, err := runCLI(t, []string{"validate-feed", valid}, "")
	if err != nil {
		t.Fatalf("validate-feed: %v", err)
	}
	requireContains(t, out, "is valid")

	broken := filepath.Join(base, "bad.xml")
	if err := os.WriteFile(broken, []byte(`<rss version="2.0"><channel><title></title></channel></rss>`), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}
	_, stderr, err := runCLI(t, []string{"validate-feed", broken}, "")
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	requireContains(t, stderr, "title is required")
}

func TestRunRequiresExistingInput(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	_, _, err := runCLI(t, []string{"run", filepath.Join(base, "missing.wav")}, configPath)
	if err == nil {
		t.Fatalf("expected error for missing input")
	}
}
