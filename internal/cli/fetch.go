package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/pagefetch/internal/browser"
	"github.com/dshills/pagefetch/internal/cache"
	"github.com/dshills/pagefetch/internal/config"
	"github.com/dshills/pagefetch/internal/fetch"
	"github.com/dshills/pagefetch/internal/output"
)

// Fetch flags
var (
	flagMethod    string
	flagParams    []string
	flagFormat    string
	flagOut       string
	flagNoCache   bool
	flagNoRedact  bool
	flagTimeout   time.Duration
	flagBrowser   string
	flagRemoteURL string
)

// newLauncher is replaced in tests.
var newLauncher = browser.NewLauncher

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a page through a real browser",
	Long: `Fetch loads the URL in a browser, waits for any Cloudflare challenge to
clear and prints the page source. Responses are cached by URL for an hour.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(flagParams)
		if err != nil {
			return err
		}
		writer, err := output.GetWriter(flagFormat, !flagNoRedact)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(buildOverrides())
		if err != nil {
			runtimeFailure(cmd, err)
			return nil
		}
		runFetch(cmd, cfg, args[0], params, writer)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&flagMethod, "method", "X", "GET", "Request method to record (GET, POST)")
	fetchCmd.Flags().StringArrayVarP(&flagParams, "param", "p", nil, "Query parameter key=value (repeatable)")
	fetchCmd.Flags().StringVar(&flagFormat, "format", "text", "Output format (text, json)")
	fetchCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file path (default: stdout)")
	fetchCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")
	fetchCmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Show clearance and session cookie values in JSON output")
	fetchCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "Overall deadline for the request (0 = none)")
	fetchCmd.Flags().StringVar(&flagBrowser, "browser", "", "Browser to drive (chrome, chromium, edge)")
	fetchCmd.Flags().StringVar(&flagRemoteURL, "remote-url", "", "DevTools URL of an already running browser")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagBrowser != "" {
		m["browser"] = flagBrowser
	}
	if flagRemoteURL != "" {
		m["remoteURL"] = flagRemoteURL
	}
	if flagNoCache {
		m["cache.enabled"] = "false"
	}
	return m
}

func parseParams(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := url.Values{}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: want key=value", p)
		}
		params.Add(key, value)
	}
	return params, nil
}

func openStore(cfg config.Config) (cache.Store, error) {
	return cache.Open(cache.Options{
		Enabled: cfg.Cache.Enabled,
		Backend: cfg.Cache.Backend,
		Path:    config.CachePath(cfg),
		TTL:     cfg.Cache.TTL(),
	})
}

func browserOptions(cfg config.Config, dataDir string) browser.Options {
	if cfg.Browser != "" && !browser.IsSupported(cfg.Browser) {
		slog.Warn("unsupported browser, using platform default", "browser", cfg.Browser)
	}
	name := browser.Select(cfg.Browser, runtime.GOOS)
	return browser.Options{
		Browser:      name,
		ExecPath:     browser.ResolveExecPath(name, cfg.BrowserExecutablePath, nil),
		RemoteURL:    cfg.RemoteURL,
		DataDir:      dataDir,
		Headless:     cfg.Headless,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		UserAgent:    browser.RandomUserAgent(),
	}
}

func waitOptions(cfg config.Config) browser.WaitOptions {
	return browser.WaitOptions{
		Timeout:      cfg.Cloudflare.Timeout(),
		PollInterval: cfg.Cloudflare.PollInterval(),
		Settle:       cfg.Cloudflare.Settle(),
	}
}

func runFetch(cmd *cobra.Command, cfg config.Config, rawURL string, params url.Values, writer output.Writer) {
	dataDir, err := config.DataDir(cfg)
	if err != nil {
		runtimeFailure(cmd, err)
		return
	}
	store, err := openStore(cfg)
	if err != nil {
		runtimeFailure(cmd, fmt.Errorf("opening cache: %w", err))
		return
	}
	defer store.Close()

	logger := slog.Default()
	launch := browser.WithRetry(newLauncher(browserOptions(cfg, dataDir), logger), cfg.LaunchRetries, time.Second, logger)
	f := fetch.New(store, launch, fetch.Options{
		Wait:    waitOptions(cfg),
		DataDir: dataDir,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if flagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagTimeout)
		defer cancel()
	}

	resp, err := f.Request(ctx, flagMethod, rawURL, params)
	if resp != nil {
		if werr := writeResponse(cmd, resp, writer); werr != nil {
			runtimeFailure(cmd, werr)
			return
		}
	}
	exitCode = exitCodeFor(err)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
}

func writeResponse(cmd *cobra.Command, resp *fetch.Response, writer output.Writer) error {
	if flagOut != "" {
		return output.WriteResponse(resp, writer, flagOut)
	}
	return writer.Write(cmd.OutOrStdout(), resp)
}

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, browser.ErrChallengeTimeout):
		return ExitChallenge
	default:
		return ExitRuntimeError
	}
}
