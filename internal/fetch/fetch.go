package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/pagefetch/internal/browser"
	"github.com/dshills/pagefetch/internal/cache"
	"github.com/dshills/pagefetch/internal/redact"
)

// Options configures a Fetcher.
type Options struct {
	Wait    browser.WaitOptions
	DataDir string
	Logger  *slog.Logger
}

// Fetcher serves page requests from the cache or a fresh browser.
type Fetcher struct {
	store   cache.Store
	launch  browser.Launcher
	wait    browser.WaitOptions
	dataDir string
	logger  *slog.Logger
}

// New returns a Fetcher. store may be a disabled cache but must not be nil.
func New(store cache.Store, launch browser.Launcher, opts Options) *Fetcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		store:   store,
		launch:  launch,
		wait:    opts.Wait,
		dataDir: opts.DataDir,
		logger:  logger,
	}
}

// ScreenshotPath is where a failed request's page capture is written.
func ScreenshotPath(dataDir string) string {
	return filepath.Join(dataDir, "screenshot.png")
}

// BuildURL appends params to the query string of rawURL, after any query it
// already has and before any fragment.
func BuildURL(rawURL string, params url.Values) string {
	if len(params) == 0 {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		return rawURL + sep + params.Encode()
	}
	if u.RawQuery == "" {
		u.RawQuery = params.Encode()
	} else {
		u.RawQuery += "&" + params.Encode()
	}
	return u.String()
}

// Get is Request with GET.
func (f *Fetcher) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	return f.Request(ctx, http.MethodGet, rawURL, params)
}

// Post is Request with POST. The browser still navigates normally; the
// method is only recorded.
func (f *Fetcher) Post(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	return f.Request(ctx, http.MethodPost, rawURL, params)
}

// Request returns the page at rawURL plus params.
//
// A fresh cache hit is returned as stored, including the method it was
// fetched with. If the Cloudflare challenge does not clear in time the
// returned Response has empty Text, the cookies and user agent seen so far,
// and an error wrapping browser.ErrChallengeTimeout; it is not cached.
func (f *Fetcher) Request(ctx context.Context, method, rawURL string, params url.Values) (*Response, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	target := BuildURL(rawURL, params)
	logURL := redact.URL(target)

	rec, ok, err := f.store.Lookup(ctx, target)
	switch {
	case err != nil:
		f.logger.Warn("cache lookup failed, fetching", "url", logURL, "error", err)
	case ok:
		f.logger.Debug("cache hit", "url", logURL, "age", time.Since(rec.Timestamp).Round(time.Second))
		return fromRecord(rec), nil
	}

	f.logger.Info("fetching page", "url", logURL, "method", method)
	resp, err := f.fetch(ctx, method, target)
	if err != nil {
		return resp, err
	}

	if browser.LooksLikeChallenge(resp.Text) {
		f.logger.Warn("page still looks like a cloudflare challenge, not caching",
			"url", logURL, "title", browser.PageTitle(resp.Text))
		return resp, nil
	}
	if err := f.store.Save(ctx, resp.record()); err != nil {
		f.logger.Warn("cache write failed", "url", logURL, "error", err)
	}
	return resp, nil
}

func (f *Fetcher) fetch(ctx context.Context, method, target string) (*Response, error) {
	d, err := f.launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	if err := d.Navigate(target); err != nil {
		return nil, f.fail(d, target, err)
	}

	waitErr := browser.WaitForCloudflare(ctx, d, f.wait)
	if waitErr != nil && !errors.Is(waitErr, browser.ErrChallengeTimeout) {
		return nil, f.fail(d, target, waitErr)
	}

	userAgent, err := d.UserAgent()
	if err != nil {
		return nil, f.fail(d, target, err)
	}
	cookies, err := d.Cookies()
	if err != nil {
		return nil, f.fail(d, target, err)
	}
	resp := &Response{
		URL:       target,
		Method:    method,
		Cookies:   convertCookies(cookies),
		UserAgent: userAgent,
	}

	if waitErr != nil {
		shot := f.screenshot(d)
		f.close(d)
		f.logger.Error("couldn't bypass cloudflare",
			"url", redact.URL(target), "timeout", f.wait.Timeout, "screenshot", shot)
		return resp, fmt.Errorf("%s: %w", redact.URL(target), waitErr)
	}

	text, err := d.PageSource()
	if err != nil {
		return nil, f.fail(d, target, err)
	}
	f.close(d)
	resp.Text = text
	return resp, nil
}

// fail captures a screenshot, closes the browser and logs the failure.
func (f *Fetcher) fail(d browser.Driver, target string, cause error) error {
	shot := f.screenshot(d)
	f.close(d)
	f.logger.Error("there was a problem getting the page",
		"url", redact.URL(target), "error", cause, "screenshot", shot)
	return fmt.Errorf("fetching %s: %w", redact.URL(target), cause)
}

func (f *Fetcher) screenshot(d browser.Driver) string {
	if f.dataDir == "" {
		return ""
	}
	path := ScreenshotPath(f.dataDir)
	if err := d.Screenshot(path); err != nil {
		f.logger.Debug("screenshot failed", "path", path, "error", err)
		return ""
	}
	return path
}

func (f *Fetcher) close(d browser.Driver) {
	if err := d.Close(); err != nil {
		f.logger.Debug("closing browser", "error", err)
	}
}
