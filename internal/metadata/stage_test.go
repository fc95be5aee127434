package metadata

import (
	"context"
	"strings"
	"testing"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/identity"
)

const fencedResponse = "```json\n" + `{
  "title": "Shipping the Big Refactor",
  "description": "We talk about the refactor.",
  "show_notes": "- refactor\n- testing",
  "summary": "Refactor episode.",
  "tags": ["go", "refactoring", "GO", "", "testing"],
  "chapters": [
    {"start_seconds": 310.0, "title": "The rewrite"},
    {"start_seconds": 0, "title": "Intro"},
    {"start_seconds": 45, "title": ""}
  ]
}` + "\n```"

type staticCompleter struct {
	content string
	prompt  string
}

func (s *staticCompleter) CompleteJSON(_ context.Context, _, userPrompt string) (string, error) {
	s.prompt = userPrompt
	return s.content, nil
}

func testTranscript() *episode.Transcript {
	return &episode.Transcript{
		Text: "hello",
		Segments: []episode.Segment{
			{Start: 0, End: 3, Text: "hello"},
		},
	}
}

func TestStageRunParsesFencedResponse(t *testing.T) {
	layout, err := identity.NewLayout(t.TempDir(), "ep_abcd1234")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	completer := &staticCompleter{content: fencedResponse}
	cfg := config.Metadata{MaxTags: 10, GenerateChapters: true}
	s := NewStage(completer, cfg, layout)

	ep := &episode.Episode{Number: 12, Transcript: testTranscript()}
	outputs, err := s.Run(context.Background(), ep)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if ep.Metadata.Title != "Shipping the Big Refactor" {
		t.Fatalf("title = %q", ep.Metadata.Title)
	}
	if len(ep.Metadata.Tags) != 3 {
		t.Fatalf("tags should dedupe and drop empties: %v", ep.Metadata.Tags)
	}
	if len(ep.Metadata.Chapters) != 2 || ep.Metadata.Chapters[0].StartSeconds != 0 {
		t.Fatalf("chapters should sort and drop untitled: %+v", ep.Metadata.Chapters)
	}
	if outputs.String("title") != ep.Metadata.Title {
		t.Fatalf("outputs = %v", outputs)
	}
	if !strings.Contains(completer.prompt, "episode 12") {
		t.Fatalf("prompt missing episode number: %s", completer.prompt)
	}

	restored := &episode.Episode{}
	if err := s.Restore(context.Background(), restored, outputs); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Metadata == nil || restored.Metadata.Title != ep.Metadata.Title {
		t.Fatalf("restore did not reload metadata")
	}
}

func TestStageRequiresTranscript(t *testing.T) {
	layout, err := identity.NewLayout(t.TempDir(), "ep_abcd1234")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	s := NewStage(&staticCompleter{}, config.Metadata{}, layout)
	if _, err := s.Run(context.Background(), &episode.Episode{}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestStageChaptersDisabled(t *testing.T) {
	layout, err := identity.NewLayout(t.TempDir(), "ep_abcd1234")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	completer := &staticCompleter{content: fencedResponse}
	s := NewStage(completer, config.Metadata{MaxTags: 2, GenerateChapters: false}, layout)
	ep := &episode.Episode{Transcript: testTranscript()}
	if _, err := s.Run(context.Background(), ep); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ep.Metadata.Chapters) != 0 {
		t.Fatalf("chapters should be dropped when disabled")
	}
	if len(ep.Metadata.Tags) != 2 {
		t.Fatalf("tags should clamp to max: %v", ep.Metadata.Tags)
	}
}

func TestDecodeModelJSONQuirks(t *testing.T) {
	type payload struct {
		OK bool `json:"ok"`
	}
	cases := []string{
		`{"ok":true}`,
		"```json\n{\"ok\":true}\n```",
		"```\n{\"ok\":true}\n```",
		"Here is the JSON you asked for: {\"ok\":true}",
	}
	for _, content := range cases {
		var p payload
		if err := DecodeModelJSON(content, &p); err != nil {
			t.Fatalf("decode %q: %v", content, err)
		}
		if !p.OK {
			t.Fatalf("decode %q: not ok", content)
		}
	}
	var p payload
	if err := DecodeModelJSON("", &p); err == nil {
		t.Fatalf("empty payload should fail")
	}
	if err := DecodeModelJSON("no json at all", &p); err == nil {
		t.Fatalf("prose payload should fail")
	}
}

func TestTruncateTranscript(t *testing.T) {
	transcript := strings.Repeat("[00:00:01] line of speech\n", 100)
	out := truncateTranscript(transcript, 500)
	if len(out) > 530 {
		t.Fatalf("truncation too long: %d", len(out))
	}
	if !strings.HasSuffix(out, "[transcript truncated]") {
		t.Fatalf("missing truncation marker")
	}
	short := "[00:00:01] short"
	if truncateTranscript(short, 500) != short {
		t.Fatalf("short transcript should pass through")
	}
}
