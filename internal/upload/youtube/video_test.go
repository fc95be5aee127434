package youtube

import (
	"strings"
	"testing"

	"github.com/benrubinchik/podflow/internal/episode"
)

func TestBuildVideoChaptersAndTags(t *testing.T) {
	ep := &episode.Episode{
		Number: 3,
		Metadata: &episode.Metadata{
			Title:       "The Big Launch",
			Description: "We launch the thing.",
			Tags:        []string{"go", "launch"},
			Chapters: []episode.Chapter{
				{StartSeconds: 0, Title: "Intro"},
				{StartSeconds: 3725, Title: "Launch day"},
			},
		},
	}
	video := BuildVideo(ep, "22", "unlisted")
	if video.Title != "Ep. 3 — The Big Launch" {
		t.Fatalf("title = %q", video.Title)
	}
	if !strings.Contains(video.Description, "Chapters:") {
		t.Fatalf("description missing chapters: %q", video.Description)
	}
	if !strings.Contains(video.Description, "0:00 Intro") {
		t.Fatalf("chapter mark missing: %q", video.Description)
	}
	if !strings.Contains(video.Description, "1:02:05 Launch day") {
		t.Fatalf("hour chapter mark missing: %q", video.Description)
	}
	if video.CategoryID != "22" || video.Privacy != "unlisted" {
		t.Fatalf("category/privacy = %q/%q", video.CategoryID, video.Privacy)
	}
}

func TestBuildVideoShowNotesBeforeChapters(t *testing.T) {
	ep := &episode.Episode{
		Number: 42,
		Metadata: &episode.Metadata{
			Title:       "Shipping Week",
			Description: "What we shipped.",
			ShowNotes:   "Links:\nhttps://example.com/release",
			Chapters: []episode.Chapter{
				{StartSeconds: 0, Title: "Intro"},
			},
		},
	}
	video := BuildVideo(ep, "22", "public")
	if video.Title != "Ep. 42 — Shipping Week" {
		t.Fatalf("title = %q", video.Title)
	}
	notesAt := strings.Index(video.Description, "https://example.com/release")
	chaptersAt := strings.Index(video.Description, "Chapters:")
	if notesAt < 0 {
		t.Fatalf("show notes missing from description: %q", video.Description)
	}
	if chaptersAt < 0 || notesAt > chaptersAt {
		t.Fatalf("show notes should precede chapters: %q", video.Description)
	}
}

func TestBuildVideoEnforcesLimits(t *testing.T) {
	tags := make([]string, 30)
	for i := range tags {
		tags[i] = "tag"
	}
	ep := &episode.Episode{
		Metadata: &episode.Metadata{
			Title:       strings.Repeat("x", 150),
			Description: strings.Repeat("y", 6000),
			Tags:        tags,
		},
	}
	video := BuildVideo(ep, "22", "public")
	if len([]rune(video.Title)) != maxTitleLength {
		t.Fatalf("title length = %d", len([]rune(video.Title)))
	}
	if len([]rune(video.Description)) != maxDescriptionLength {
		t.Fatalf("description length = %d", len([]rune(video.Description)))
	}
	if len(video.Tags) != maxTagCount {
		t.Fatalf("tag count = %d", len(video.Tags))
	}
}

func TestBuildVideoEpisodePrivacyOverride(t *testing.T) {
	ep := &episode.Episode{Privacy: "private"}
	video := BuildVideo(ep, "22", "public")
	if video.Privacy != "private" {
		t.Fatalf("privacy = %q", video.Privacy)
	}
	if video.Title != "Untitled Episode" {
		t.Fatalf("fallback title = %q", video.Title)
	}
}

func TestRequestBodyShape(t *testing.T) {
	video := Video{Title: "t", Description: "d", Tags: []string{"a"}, CategoryID: "22", Privacy: "unlisted"}
	body := video.requestBody()
	snippet, ok := body["snippet"].(map[string]any)
	if !ok || snippet["title"] != "t" || snippet["categoryId"] != "22" {
		t.Fatalf("unexpected snippet: %+v", body)
	}
	status, ok := body["status"].(map[string]any)
	if !ok || status["privacyStatus"] != "unlisted" {
		t.Fatalf("unexpected status: %+v", body)
	}
}

func TestWatchURL(t *testing.T) {
	if WatchURL("abc123") != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("unexpected watch url")
	}
}
