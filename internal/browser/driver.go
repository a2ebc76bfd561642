package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Driver is a single browser tab.
type Driver interface {
	Navigate(url string) error
	Title() (string, error)
	UserAgent() (string, error)
	Cookies() ([]*network.Cookie, error)
	PageSource() (string, error)
	Screenshot(path string) error
	Close() error
}

// Launcher starts a browser and returns a driver for a fresh tab.
type Launcher func(ctx context.Context) (Driver, error)

// NewLauncher returns a Launcher that calls Launch with opts.
func NewLauncher(opts Options, logger *slog.Logger) Launcher {
	return func(ctx context.Context) (Driver, error) {
		return Launch(ctx, opts, logger)
	}
}

type chromeDriver struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// Launch starts a local browser, or attaches to opts.RemoteURL when set, and
// opens a tab. The browser lives until Close or until ctx is cancelled.
func Launch(ctx context.Context, opts Options, logger *slog.Logger) (Driver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if opts.RemoteURL != "" {
		logger.Debug("attaching to remote browser", "url", opts.RemoteURL)
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		logger.Debug("launching browser", "browser", opts.Browser, "exec", opts.ExecPath, "headless", opts.Headless)
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, AllocatorOptions(opts)...)
	}

	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug("chromedp: " + fmt.Sprintf(format, args...))
		}),
	)
	// An empty Run starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting %s: %w", opts.Browser, err)
	}
	return &chromeDriver{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel}, nil
}

func (d *chromeDriver) Navigate(url string) error {
	if err := chromedp.Run(d.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating: %w", err)
	}
	return nil
}

func (d *chromeDriver) Title() (string, error) {
	var title string
	if err := chromedp.Run(d.ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

func (d *chromeDriver) UserAgent() (string, error) {
	var ua string
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(`navigator.userAgent`, &ua)); err != nil {
		return "", fmt.Errorf("reading user agent: %w", err)
	}
	return ua, nil
}

func (d *chromeDriver) Cookies() ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}
	return cookies, nil
}

func (d *chromeDriver) PageSource() (string, error) {
	var html string
	if err := chromedp.Run(d.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading page source: %w", err)
	}
	return html, nil
}

// Screenshot writes a full-page PNG to path.
func (d *chromeDriver) Screenshot(path string) error {
	var buf []byte
	if err := chromedp.Run(d.ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("capturing screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating screenshot directory: %w", err)
	}
	return os.WriteFile(path, buf, 0o644)
}

// Close shuts the tab and the browser it belongs to.
func (d *chromeDriver) Close() error {
	err := chromedp.Cancel(d.ctx)
	d.cancel()
	d.allocCancel()
	return err
}
