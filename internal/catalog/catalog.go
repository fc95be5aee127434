// Package catalog persists the published-episode catalog backing the RSS
// feed, so the feed can always be regenerated from everything published to
// date rather than only the current run.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Episode is one published episode row.
type Episode struct {
	EpisodeID       string
	Number          int
	Title           string
	Description     string
	AudioURL        string
	AudioSizeBytes  int64
	DurationSeconds float64
	YouTubeURL      string
	PublishedAt     time.Time
}

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	episode_id       TEXT PRIMARY KEY,
	number           INTEGER NOT NULL DEFAULT 0,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	audio_url        TEXT NOT NULL,
	audio_size_bytes INTEGER NOT NULL DEFAULT 0,
	duration_seconds REAL NOT NULL DEFAULT 0,
	youtube_url      TEXT NOT NULL DEFAULT '',
	published_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_episodes_published_at ON episodes(published_at DESC);
`

// Open initializes or connects to the catalog database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert records or replaces an episode's published row.
func (s *Store) Upsert(ctx context.Context, ep Episode) error {
	if strings.TrimSpace(ep.EpisodeID) == "" {
		return errors.New("catalog upsert: episode id required")
	}
	if ep.PublishedAt.IsZero() {
		ep.PublishedAt = time.Now().UTC()
	}
	return s.execWithRetry(ctx, `
		INSERT INTO episodes (
			episode_id, number, title, description, audio_url,
			audio_size_bytes, duration_seconds, youtube_url, published_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(episode_id) DO UPDATE SET
			number = excluded.number,
			title = excluded.title,
			description = excluded.description,
			audio_url = excluded.audio_url,
			audio_size_bytes = excluded.audio_size_bytes,
			duration_seconds = excluded.duration_seconds,
			youtube_url = excluded.youtube_url,
			published_at = excluded.published_at`,
		ep.EpisodeID, ep.Number, ep.Title, ep.Description, ep.AudioURL,
		ep.AudioSizeBytes, ep.DurationSeconds, ep.YouTubeURL,
		ep.PublishedAt.UTC().Format(time.RFC3339),
	)
}

// List returns all published episodes, newest first.
func (s *Store) List(ctx context.Context) ([]Episode, error) {
	ctx = ensureContext(ctx)
	var rows *sql.Rows
	err := retryOnBusy(ctx, func() error {
		var queryErr error
		rows, queryErr = s.db.QueryContext(ctx, `
			SELECT episode_id, number, title, description, audio_url,
			       audio_size_bytes, duration_seconds, youtube_url, published_at
			FROM episodes
			ORDER BY published_at DESC, number DESC`)
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var ep Episode
		var publishedAt string
		if err := rows.Scan(
			&ep.EpisodeID, &ep.Number, &ep.Title, &ep.Description, &ep.AudioURL,
			&ep.AudioSizeBytes, &ep.DurationSeconds, &ep.YouTubeURL, &publishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, publishedAt); err == nil {
			ep.PublishedAt = parsed
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// Get returns one episode by its identifier.
func (s *Store) Get(ctx context.Context, episodeID string) (Episode, bool, error) {
	ctx = ensureContext(ctx)
	var ep Episode
	var publishedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT episode_id, number, title, description, audio_url,
		       audio_size_bytes, duration_seconds, youtube_url, published_at
		FROM episodes WHERE episode_id = ?`, episodeID).Scan(
		&ep.EpisodeID, &ep.Number, &ep.Title, &ep.Description, &ep.AudioURL,
		&ep.AudioSizeBytes, &ep.DurationSeconds, &ep.YouTubeURL, &publishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Episode{}, false, nil
	}
	if err != nil {
		return Episode{}, false, fmt.Errorf("get episode: %w", err)
	}
	if parsed, parseErr := time.Parse(time.RFC3339, publishedAt); parseErr == nil {
		ep.PublishedAt = parsed
	}
	return ep, true, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
