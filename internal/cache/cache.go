package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is the age after which a record is considered expired.
const DefaultTTL = time.Hour

// ErrUnsupportedBackend is returned by Open for an unknown backend name.
var ErrUnsupportedBackend = errors.New("unsupported cache backend")

// Cookie is a browser cookie captured alongside a page.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expiry   float64 `json:"expiry,omitempty"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Record is one cached page, keyed by its URL.
type Record struct {
	URL       string    `json:"-"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	Cookies   []Cookie  `json:"cookies"`
	UserAgent string    `json:"user_agent"`
}

// IsExpired reports whether rec is older than ttl at now. A record exactly
// ttl old is still fresh.
func IsExpired(rec Record, now time.Time, ttl time.Duration) bool {
	return now.Sub(rec.Timestamp) > ttl
}

// Stats describes the contents of a store.
type Stats struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	Entries    int    `json:"entries"`
	Expired    int    `json:"expired"`
	TotalBytes int64  `json:"totalBytes"`
}

// Store is a URL-keyed table of cached pages.
//
// Lookup returns (rec, true, nil) for a fresh hit. An expired record is
// removed during Lookup and reported as a miss.
type Store interface {
	Lookup(ctx context.Context, url string) (Record, bool, error)
	Save(ctx context.Context, rec Record) error
	Purge(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Options configures Open.
type Options struct {
	Enabled bool
	Backend string
	Path    string
	TTL     time.Duration
}

// Open returns the store selected by opts. A disabled cache always misses.
func Open(opts Options) (Store, error) {
	if !opts.Enabled {
		return disabled{}, nil
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	switch opts.Backend {
	case "", "json":
		return NewJSONStore(opts.Path, opts.TTL), nil
	case "sqlite":
		return OpenSQLite(opts.Path, opts.TTL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, opts.Backend)
	}
}

type disabled struct{}

func (disabled) Lookup(context.Context, string) (Record, bool, error) { return Record{}, false, nil }
func (disabled) Save(context.Context, Record) error                   { return nil }
func (disabled) Purge(context.Context) (int, error)                   { return 0, nil }
func (disabled) Clear(context.Context) error                          { return nil }
func (disabled) Stats(context.Context) (Stats, error)                 { return Stats{Backend: "disabled"}, nil }
func (disabled) Close() error                                         { return nil }
