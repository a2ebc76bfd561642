package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clock is a settable time source shared by a store under test.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type backend struct {
	name string
	open func(t *testing.T, c *clock) Store
}

var backends = []backend{
	{"json", func(t *testing.T, c *clock) Store {
		s := NewJSONStore(filepath.Join(t.TempDir(), "cache.json"), DefaultTTL)
		s.now = c.now
		return s
	}},
	{"sqlite", func(t *testing.T, c *clock) Store {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"), DefaultTTL)
		if err != nil {
			t.Fatalf("OpenSQLite error: %v", err)
		}
		s.now = c.now
		t.Cleanup(func() { s.Close() })
		return s
	}},
}

func sampleRecord(url string) Record {
	return Record{
		URL:       url,
		Data:      "<html><title>ok</title></html>",
		Method:    "GET",
		UserAgent: "Mozilla/5.0 test",
		Cookies: []Cookie{
			{Name: "cf_clearance", Value: "abc", Domain: ".example.com", Path: "/", Secure: true},
		},
	}
}

func TestStore_SaveLookup(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Unix(1_700_000_000, 0)}
			s := b.open(t, c)

			if _, ok, err := s.Lookup(ctx, "https://example.com/a"); err != nil || ok {
				t.Fatalf("Expected miss before save, got ok=%v err=%v", ok, err)
			}

			if err := s.Save(ctx, sampleRecord("https://example.com/a")); err != nil {
				t.Fatalf("Save error: %v", err)
			}

			got, ok, err := s.Lookup(ctx, "https://example.com/a")
			if err != nil {
				t.Fatalf("Lookup error: %v", err)
			}
			if !ok {
				t.Fatal("Expected hit after save")
			}
			if got.URL != "https://example.com/a" {
				t.Errorf("URL = %q", got.URL)
			}
			if got.Data != "<html><title>ok</title></html>" {
				t.Errorf("Data = %q", got.Data)
			}
			if got.Method != "GET" || got.UserAgent != "Mozilla/5.0 test" {
				t.Errorf("Method/UserAgent = %q/%q", got.Method, got.UserAgent)
			}
			if len(got.Cookies) != 1 || got.Cookies[0].Name != "cf_clearance" || !got.Cookies[0].Secure {
				t.Errorf("Cookies = %+v", got.Cookies)
			}
			if !got.Timestamp.Equal(c.t) {
				t.Errorf("Timestamp = %v, want %v", got.Timestamp, c.t)
			}
		})
	}
}

func TestStore_ExpiryBoundary(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Unix(1_700_000_000, 0)}
			s := b.open(t, c)
			url := "https://example.com/expiring"

			if err := s.Save(ctx, sampleRecord(url)); err != nil {
				t.Fatalf("Save error: %v", err)
			}

			// Exactly one hour old is still fresh.
			c.advance(DefaultTTL)
			if _, ok, _ := s.Lookup(ctx, url); !ok {
				t.Fatal("Expected hit at exactly the TTL")
			}

			c.advance(time.Second)
			if _, ok, err := s.Lookup(ctx, url); err != nil || ok {
				t.Fatalf("Expected miss after TTL, got ok=%v err=%v", ok, err)
			}

			// The expired record was purged, not just skipped.
			stats, err := s.Stats(ctx)
			if err != nil {
				t.Fatalf("Stats error: %v", err)
			}
			if stats.Entries != 0 {
				t.Errorf("Entries after lazy purge = %d, want 0", stats.Entries)
			}
		})
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Unix(1_700_000_000, 0)}
			s := b.open(t, c)
			url := "https://example.com/page"

			if err := s.Save(ctx, sampleRecord(url)); err != nil {
				t.Fatal(err)
			}
			c.advance(30 * time.Minute)
			rec := sampleRecord(url)
			rec.Data = "second"
			rec.Method = "POST"
			if err := s.Save(ctx, rec); err != nil {
				t.Fatal(err)
			}

			// The refreshed timestamp keeps it alive past the first write's expiry.
			c.advance(45 * time.Minute)
			got, ok, err := s.Lookup(ctx, url)
			if err != nil || !ok {
				t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
			}
			if got.Data != "second" || got.Method != "POST" {
				t.Errorf("Got %q/%q, want second/POST", got.Data, got.Method)
			}
		})
	}
}

func TestStore_PurgeAndStats(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Unix(1_700_000_000, 0)}
			s := b.open(t, c)

			for _, u := range []string{"https://a.test", "https://b.test"} {
				if err := s.Save(ctx, sampleRecord(u)); err != nil {
					t.Fatal(err)
				}
			}
			c.advance(2 * time.Hour)
			if err := s.Save(ctx, sampleRecord("https://c.test")); err != nil {
				t.Fatal(err)
			}

			stats, err := s.Stats(ctx)
			if err != nil {
				t.Fatalf("Stats error: %v", err)
			}
			if stats.Entries != 3 || stats.Expired != 2 {
				t.Errorf("Stats = %+v, want 3 entries / 2 expired", stats)
			}
			if stats.TotalBytes == 0 {
				t.Error("TotalBytes should be non-zero")
			}

			n, err := s.Purge(ctx)
			if err != nil {
				t.Fatalf("Purge error: %v", err)
			}
			if n != 2 {
				t.Errorf("Purge removed %d, want 2", n)
			}
			if _, ok, _ := s.Lookup(ctx, "https://c.test"); !ok {
				t.Error("Fresh record should survive purge")
			}
		})
	}
}

func TestStore_Clear(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Now()}
			s := b.open(t, c)

			if err := s.Save(ctx, sampleRecord("https://a.test")); err != nil {
				t.Fatal(err)
			}
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("Clear error: %v", err)
			}
			if _, ok, _ := s.Lookup(ctx, "https://a.test"); ok {
				t.Error("Expected miss after clear")
			}
			// Clearing an empty cache is fine.
			if err := s.Clear(ctx); err != nil {
				t.Errorf("Second Clear error: %v", err)
			}
		})
	}
}

func TestStore_SaveWithoutURL(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, &clock{t: time.Now()})
			if err := s.Save(context.Background(), Record{Data: "x"}); err == nil {
				t.Error("Expected error saving a record without URL")
			}
		})
	}
}

func TestJSONStore_FileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	s := NewJSONStore(path, DefaultTTL)
	if err := s.Save(context.Background(), sampleRecord("https://example.com/x")); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Cache file is not a JSON object: %v", err)
	}
	entry, ok := raw["https://example.com/x"]
	if !ok {
		t.Fatalf("Cache file not keyed by URL: %s", data)
	}
	for _, key := range []string{"data", "timestamp", "method", "cookies", "user_agent"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("Entry missing %q", key)
		}
	}
}

func TestJSONStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewJSONStore(path, DefaultTTL)
	if _, _, err := s.Lookup(context.Background(), "https://a.test"); err == nil {
		t.Error("Expected parse error from corrupt cache file")
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(Options{Enabled: false})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := s.Save(context.Background(), sampleRecord("https://a.test")); err != nil {
		t.Errorf("Save on disabled cache should not error: %v", err)
	}
	if _, ok, _ := s.Lookup(context.Background(), "https://a.test"); ok {
		t.Error("Disabled cache should always miss")
	}

	js, err := Open(Options{Enabled: true, Backend: "json", Path: filepath.Join(t.TempDir(), "c.json")})
	if err != nil {
		t.Fatalf("Open json error: %v", err)
	}
	if _, ok := js.(*JSONStore); !ok {
		t.Errorf("Open json returned %T", js)
	}

	_, err = Open(Options{Enabled: true, Backend: "redis"})
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Errorf("Open redis error = %v, want ErrUnsupportedBackend", err)
	}
}

func TestIsExpired(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	rec := Record{Timestamp: base}
	if IsExpired(rec, base.Add(3600*time.Second), DefaultTTL) {
		t.Error("3600s old record should not be expired")
	}
	if !IsExpired(rec, base.Add(3601*time.Second), DefaultTTL) {
		t.Error("3601s old record should be expired")
	}
}
