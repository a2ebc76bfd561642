package browser

import (
	"path/filepath"

	"github.com/chromedp/chromedp"
)

// Options configures a browser launch.
type Options struct {
	Browser      Name
	ExecPath     string
	RemoteURL    string
	DataDir      string
	Headless     bool
	WindowWidth  int
	WindowHeight int
	UserAgent    string
}

// ProfileDir returns the persistent profile directory under dataDir.
func ProfileDir(dataDir string) string {
	return filepath.Join(dataDir, "chromium_profile")
}

// AllocatorOptions builds the chromedp exec allocator flags for opts.
func AllocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("log-level", "3"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.DataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(ProfileDir(opts.DataDir)))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	return allocOpts
}
