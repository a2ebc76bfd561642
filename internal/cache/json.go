package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// JSONStore keeps every record in a single indented JSON object keyed by
// URL. The whole file is read on each lookup and rewritten on each change.
type JSONStore struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewJSONStore returns a store backed by the file at path.
func NewJSONStore(path string, ttl time.Duration) *JSONStore {
	return &JSONStore{path: path, ttl: ttl, now: time.Now}
}

// Path returns the backing file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Lookup returns the fresh record for url. An expired record is dropped and
// the file rewritten before reporting a miss.
func (s *JSONStore) Lookup(_ context.Context, url string) (Record, bool, error) {
	table, err := s.load()
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := table[url]
	if !ok {
		return Record{}, false, nil
	}
	if IsExpired(rec, s.now(), s.ttl) {
		delete(table, url)
		if err := s.write(table); err != nil {
			return Record{}, false, err
		}
		return Record{}, false, nil
	}
	rec.URL = url
	return rec, true, nil
}

// Save stores rec under rec.URL, stamping it with the current time.
func (s *JSONStore) Save(_ context.Context, rec Record) error {
	if rec.URL == "" {
		return fmt.Errorf("cache record has no URL")
	}
	table, err := s.load()
	if err != nil {
		return err
	}
	rec.Timestamp = s.now()
	table[rec.URL] = rec
	return s.write(table)
}

// Purge removes every expired record and returns how many were dropped.
func (s *JSONStore) Purge(_ context.Context) (int, error) {
	table, err := s.load()
	if err != nil {
		return 0, err
	}
	now := s.now()
	var removed int
	for url, rec := range table {
		if IsExpired(rec, now, s.ttl) {
			delete(table, url)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.write(table)
}

// Clear deletes the cache file.
func (s *JSONStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}

// Stats returns entry counts and the file size.
func (s *JSONStore) Stats(_ context.Context) (Stats, error) {
	stats := Stats{Backend: "json", Path: s.path}
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache file: %w", err)
	}
	stats.TotalBytes = info.Size()
	table, err := s.load()
	if err != nil {
		return stats, err
	}
	now := s.now()
	for _, rec := range table {
		stats.Entries++
		if IsExpired(rec, now, s.ttl) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Close is a no-op; the file is not held open between calls.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) load() (map[string]Record, error) {
	table := map[string]Record{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return nil, fmt.Errorf("reading cache file: %w", err)
	}
	if len(data) == 0 {
		return table, nil
	}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing cache file %s: %w", s.path, err)
	}
	return table, nil
}

func (s *JSONStore) write(table map[string]Record) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(table, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}
