package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Issue is one validation finding.
type Issue struct {
	Severity string // "error" or "warning"
	Message  string
}

func (i Issue) String() string {
	return i.Severity + ": " + i.Message
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Image       *rssImage `xml:"image"`
	Items       []rssItem `xml:"item"`
}

type rssImage struct {
	URL string `xml:"url"`
}

type rssItem struct {
	Title     string        `xml:"title"`
	PubDate   string        `xml:"pubDate"`
	GUID      string        `xml:"guid"`
	Enclosure *rssEnclosure `xml:"enclosure"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Validate parses a feed document and reports findings against the
// requirements podcast directories enforce. A parse failure is returned as
// an error; structural findings come back as issues.
func Validate(data []byte) ([]Issue, error) {
	var doc rssDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("feed is not well-formed XML: %w", err)
	}

	var issues []Issue
	addError := func(format string, args ...any) {
		issues = append(issues, Issue{Severity: "error", Message: fmt.Sprintf(format, args...)})
	}
	addWarning := func(format string, args ...any) {
		issues = append(issues, Issue{Severity: "warning", Message: fmt.Sprintf(format, args...)})
	}

	if doc.Version != "2.0" {
		addError("rss version must be 2.0, got %q", doc.Version)
	}
	ch := doc.Channel
	if strings.TrimSpace(ch.Title) == "" {
		addError("channel title is required")
	}
	if strings.TrimSpace(ch.Link) == "" {
		addError("channel link is required")
	}
	if strings.TrimSpace(ch.Description) == "" {
		addError("channel description is required")
	}
	if strings.TrimSpace(ch.Language) == "" {
		addWarning("channel language missing; directories expect one")
	}
	if ch.Image == nil || strings.TrimSpace(ch.Image.URL) == "" {
		addWarning("channel image missing; Apple Podcasts requires artwork")
	}
	if len(ch.Items) == 0 {
		addWarning("feed has no items")
	}

	seenGUIDs := make(map[string]bool, len(ch.Items))
	for i, item := range ch.Items {
		label := fmt.Sprintf("item %d (%q)", i+1, item.Title)
		if strings.TrimSpace(item.Title) == "" {
			addError("%s: title is required", label)
		}
		if item.Enclosure == nil {
			addError("%s: enclosure is required", label)
		} else {
			if !strings.HasPrefix(item.Enclosure.URL, "http://") && !strings.HasPrefix(item.Enclosure.URL, "https://") {
				addError("%s: enclosure url %q is not absolute", label, item.Enclosure.URL)
			}
			if item.Enclosure.Length <= 0 {
				addWarning("%s: enclosure length missing or zero", label)
			}
			if item.Enclosure.Type != "audio/mpeg" {
				addWarning("%s: enclosure type %q, expected audio/mpeg", label, item.Enclosure.Type)
			}
		}
		if item.PubDate != "" {
			if _, err := parsePubDate(item.PubDate); err != nil {
				addError("%s: pubDate %q is not RFC 1123: %v", label, item.PubDate, err)
			}
		}
		if guid := strings.TrimSpace(item.GUID); guid != "" {
			if seenGUIDs[guid] {
				addError("%s: duplicate guid %q", label, guid)
			}
			seenGUIDs[guid] = true
		}
	}

	return issues, nil
}

// HasErrors reports whether any finding is severity error.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}

func parsePubDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}
