package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// SQLite driver.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cached_requests (
	url        TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	created_ms INTEGER NOT NULL,
	method     TEXT NOT NULL,
	cookies    TEXT NOT NULL DEFAULT '[]',
	user_agent TEXT NOT NULL DEFAULT ''
)`

// SQLiteStore keeps records in a single SQLite table keyed by URL.
type SQLiteStore struct {
	db   *sql.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, ttl time.Duration) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path, ttl: ttl, now: time.Now}, nil
}

// Lookup returns the fresh record for url, deleting it instead if expired.
func (s *SQLiteStore) Lookup(ctx context.Context, url string) (Record, bool, error) {
	var (
		rec       Record
		createdMs int64
		cookies   string
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT data, created_ms, method, cookies, user_agent FROM cached_requests WHERE url = ?`, url)
	if err := row.Scan(&rec.Data, &createdMs, &rec.Method, &cookies, &rec.UserAgent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("querying cache: %w", err)
	}
	rec.URL = url
	rec.Timestamp = time.UnixMilli(createdMs)
	if IsExpired(rec, s.now(), s.ttl) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM cached_requests WHERE url = ?`, url); err != nil {
			return Record{}, false, fmt.Errorf("deleting expired record: %w", err)
		}
		return Record{}, false, nil
	}
	if err := json.Unmarshal([]byte(cookies), &rec.Cookies); err != nil {
		return Record{}, false, fmt.Errorf("decoding cached cookies: %w", err)
	}
	return rec, true, nil
}

// Save upserts rec, stamping it with the current time.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	if rec.URL == "" {
		return fmt.Errorf("cache record has no URL")
	}
	cookies := rec.Cookies
	if cookies == nil {
		cookies = []Cookie{}
	}
	encoded, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("encoding cookies: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cached_requests (url, data, created_ms, method, cookies, user_agent)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			data = excluded.data,
			created_ms = excluded.created_ms,
			method = excluded.method,
			cookies = excluded.cookies,
			user_agent = excluded.user_agent`,
		rec.URL, rec.Data, s.now().UnixMilli(), rec.Method, string(encoded), rec.UserAgent)
	if err != nil {
		return fmt.Errorf("writing cache record: %w", err)
	}
	return nil
}

// Purge deletes every expired record.
func (s *SQLiteStore) Purge(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cached_requests WHERE created_ms < ?`, s.cutoff())
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Clear deletes every record.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cached_requests`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Stats counts records and sums stored page sizes.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Backend: "sqlite", Path: s.path}
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN created_ms < ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(LENGTH(data)), 0)
		FROM cached_requests`, s.cutoff())
	if err := row.Scan(&stats.Entries, &stats.Expired, &stats.TotalBytes); err != nil {
		return stats, fmt.Errorf("reading cache stats: %w", err)
	}
	return stats, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// cutoff is the oldest creation time (ms) that is still fresh.
func (s *SQLiteStore) cutoff() int64 {
	return s.now().Add(-s.ttl).UnixMilli()
}
