package browser

import (
	"os/exec"
	"strings"
)

// Name identifies a supported browser.
type Name string

const (
	Chrome   Name = "chrome"
	Chromium Name = "chromium"
	Edge     Name = "edge"
)

// executables lists binary names tried on PATH for each browser, in order.
// Chrome is left to chromedp's own discovery.
var executables = map[Name][]string{
	Chromium: {"chromium", "chromium-browser"},
	Edge:     {"microsoft-edge", "microsoft-edge-stable", "msedge"},
}

// IsSupported reports whether configured names a browser pagefetch can drive.
func IsSupported(configured string) bool {
	switch Name(strings.ToLower(strings.TrimSpace(configured))) {
	case Chrome, Chromium, Edge:
		return true
	}
	return false
}

// Select returns the configured browser if it is supported, otherwise the
// default for goos: chromium on linux, chrome elsewhere.
func Select(configured, goos string) Name {
	if IsSupported(configured) {
		return Name(strings.ToLower(strings.TrimSpace(configured)))
	}
	if goos == "linux" {
		return Chromium
	}
	return Chrome
}

// ResolveExecPath returns the binary to launch for name. An explicit path
// wins; otherwise the first candidate found by lookPath, or "" to let
// chromedp locate Chrome itself.
func ResolveExecPath(name Name, explicit string, lookPath func(string) (string, error)) string {
	if explicit != "" {
		return explicit
	}
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, candidate := range executables[name] {
		if path, err := lookPath(candidate); err == nil {
			return path
		}
	}
	return ""
}
