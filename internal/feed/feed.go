// Package feed renders the podcast RSS document from the published-episode
// catalog and validates the result against common directory requirements.
package feed

import (
	"fmt"
	"time"

	"github.com/eduncan911/podcast"

	"github.com/benrubinchik/podflow/internal/catalog"
	"github.com/benrubinchik/podflow/internal/config"
)

// Generator renders RSS with iTunes extensions.
type Generator struct {
	cfg config.Feed
}

// NewGenerator constructs a Generator for the channel configuration.
func NewGenerator(cfg config.Feed) *Generator {
	return &Generator{cfg: cfg}
}

// Generate renders the full feed for the given episodes, newest first.
func (g *Generator) Generate(episodes []catalog.Episode, now time.Time) ([]byte, error) {
	updated := now.UTC()
	created := updated
	if n := len(episodes); n > 0 {
		created = episodes[n-1].PublishedAt.UTC()
	}

	p := podcast.New(g.cfg.Title, g.cfg.Link, g.cfg.Description, &created, &updated)
	if g.cfg.Author != "" {
		p.AddAuthor(g.cfg.Author, g.cfg.Email)
		p.ManagingEditor = ""
	}
	if g.cfg.ImageURL != "" {
		p.AddImage(g.cfg.ImageURL)
	}
	if g.cfg.Category != "" {
		var subcategories []string
		if g.cfg.Subcategory != "" {
			subcategories = []string{g.cfg.Subcategory}
		}
		p.AddCategory(g.cfg.Category, subcategories)
	}
	if g.cfg.Language != "" {
		p.Language = g.cfg.Language
	}
	if g.cfg.Explicit {
		p.IExplicit = "true"
	} else {
		p.IExplicit = "false"
	}

	for _, ep := range episodes {
		item := podcast.Item{
			Title:       ep.Title,
			Description: itemDescription(ep),
			GUID:        ep.AudioURL,
		}
		pubDate := ep.PublishedAt.UTC()
		item.AddPubDate(&pubDate)
		item.AddEnclosure(ep.AudioURL, podcast.MP3, ep.AudioSizeBytes)
		if ep.DurationSeconds > 0 {
			item.AddDuration(int64(ep.DurationSeconds))
		}
		if ep.YouTubeURL != "" {
			item.Link = ep.YouTubeURL
		}
		if _, err := p.AddItem(item); err != nil {
			return nil, fmt.Errorf("add feed item %q: %w", ep.Title, err)
		}
	}

	return p.Bytes(), nil
}

func itemDescription(ep catalog.Episode) string {
	if ep.Description != "" {
		return ep.Description
	}
	return ep.Title
}
