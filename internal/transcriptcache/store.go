package transcriptcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/services"
	"scribe/internal/transcript"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Entry is one cached transcript. SegmentCount is derived from Transcript by
// Set; the value passed in is ignored.
type Entry struct {
	Key          string
	Transcript   string
	Source       string
	SegmentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store is the SQLite-backed transcript cache. A Store opened with an empty path
// is disabled.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the cache database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return &Store{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Enabled reports whether the store persists anything.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// Path returns the database location, empty when disabled.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.db.Close()
}

// Get returns the transcript stored under key. The boolean is false on a miss.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if !s.Enabled() {
		return "", false, nil
	}
	ctx = ensureContext(ctx)
	var value string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT transcript FROM transcripts WHERE cache_key = ?`, key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, services.Wrap(services.ErrCacheUnavailable, "cache", "get", key, err)
	}
	return value, true, nil
}

// Set stores or replaces an entry.
func (s *Store) Set(ctx context.Context, entry Entry) error {
	if !s.Enabled() {
		return nil
	}
	if strings.TrimSpace(entry.Key) == "" {
		return services.Wrap(services.ErrValidation, "cache", "set", "key required", nil)
	}
	entry.SegmentCount = len(transcript.ParseAnnotated(entry.Transcript))
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	err := s.execWithoutResultRetry(ctx, `
		INSERT INTO transcripts (cache_key, transcript, source, segment_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			transcript = excluded.transcript,
			source = excluded.source,
			segment_count = excluded.segment_count,
			updated_at = excluded.updated_at`,
		entry.Key, entry.Transcript, entry.Source, entry.SegmentCount,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return services.Wrap(services.ErrCacheUnavailable, "cache", "set", entry.Key, err)
	}
	return nil
}

// List returns all entries, newest first. Transcript text is included.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	if !s.Enabled() {
		return nil, nil
	}
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `
		SELECT cache_key, transcript, source, segment_count, created_at, updated_at
		FROM transcripts ORDER BY created_at DESC, cache_key`)
	if err != nil {
		return nil, services.Wrap(services.ErrCacheUnavailable, "cache", "list", "", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var created, updated string
		if err := rows.Scan(&entry.Key, &entry.Transcript, &entry.Source, &entry.SegmentCount, &created, &updated); err != nil {
			return nil, services.Wrap(services.ErrCacheUnavailable, "cache", "list", "scan row", err)
		}
		entry.CreatedAt = parseTime(created)
		entry.UpdatedAt = parseTime(updated)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrCacheUnavailable, "cache", "list", "", err)
	}
	return entries, nil
}

// Remove deletes the entry for key and reports whether one existed.
func (s *Store) Remove(ctx context.Context, key string) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM transcripts WHERE cache_key = ?`, key)
	if err != nil {
		return false, services.Wrap(services.ErrCacheUnavailable, "cache", "remove", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, services.Wrap(services.ErrCacheUnavailable, "cache", "remove", key, err)
	}
	return affected > 0, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM transcripts`)
	if err != nil {
		return 0, services.Wrap(services.ErrCacheUnavailable, "cache", "clear", "", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, services.Wrap(services.ErrCacheUnavailable, "cache", "clear", "", err)
	}
	return affected, nil
}

// Count returns the number of cached transcripts.
func (s *Store) Count(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	var count int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM transcripts`).Scan(&count)
	})
	if err != nil {
		return 0, services.Wrap(services.ErrCacheUnavailable, "cache", "count", "", err)
	}
	return count, nil
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
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

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
