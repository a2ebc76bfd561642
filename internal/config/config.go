package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const appName = "pagefetch"

// Config represents the pagefetch configuration.
type Config struct {
	Browser               string           `json:"browser,omitempty"`
	BrowserExecutablePath string           `json:"browserExecutablePath,omitempty"`
	RemoteURL             string           `json:"remoteURL,omitempty"`
	DataDir               string           `json:"dataDir,omitempty"`
	Headless              bool             `json:"headless"`
	WindowWidth           int              `json:"windowWidth"`
	WindowHeight          int              `json:"windowHeight"`
	LaunchRetries         int              `json:"launchRetries"`
	LogLevel              string           `json:"logLevel"`
	Cache                 CacheConfig      `json:"cache"`
	Cloudflare            CloudflareConfig `json:"cloudflare"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Backend    string `json:"backend"`
	Path       string `json:"path,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// CloudflareConfig tunes the challenge wait loop.
type CloudflareConfig struct {
	TimeoutSeconds int `json:"timeoutSeconds"`
	PollMillis     int `json:"pollMillis"`
	SettleMillis   int `json:"settleMillis"`
}

// Timeout returns the challenge timeout as a duration.
func (c CloudflareConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollInterval returns the title polling interval.
func (c CloudflareConfig) PollInterval() time.Duration {
	return time.Duration(c.PollMillis) * time.Millisecond
}

// Settle returns the delay applied once the challenge is gone.
func (c CloudflareConfig) Settle() time.Duration {
	return time.Duration(c.SettleMillis) * time.Millisecond
}

// TTL returns the cache lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Headless:      true,
		WindowWidth:   1920,
		WindowHeight:  1080,
		LaunchRetries: 2,
		LogLevel:      "info",
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    "json",
			TTLSeconds: 3600,
		},
		Cloudflare: CloudflareConfig{
			TimeoutSeconds: 50,
			PollMillis:     250,
			SettleMillis:   2000,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for pagefetch.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(home, "AppData", "Roaming", appName), nil
	default:
		return filepath.Join(home, ".config", appName), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DataDir returns the directory holding the browser profile, logs and
// failure screenshots. An explicit cfg.DataDir wins.
func DataDir(cfg Config) (string, error) {
	if cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// CachePath returns the cache file location, defaulting to the OS temp dir.
func CachePath(cfg Config) string {
	if cfg.Cache.Path != "" {
		return cfg.Cache.Path
	}
	ext := ".json"
	if cfg.Cache.Backend == "sqlite" {
		ext = ".db"
	}
	return filepath.Join(os.TempDir(), appName+"_cached_requests"+ext)
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadFileWithDefaults()
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if err := SetField(&cfg, key, value); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// LoadFileWithDefaults returns the defaults overlaid with the config file,
// ignoring env and flags. It is what `config set` edits.
func LoadFileWithDefaults() (Config, error) {
	cfg := Default()
	fileCfg, exists, err := loadFileRaw()
	if err != nil {
		return Config{}, err
	}
	if exists {
		mergeFile(&cfg, fileCfg)
	}
	return cfg, nil
}

// fileConfig mirrors Config with pointer fields so an explicit false or zero
// in the file can be told apart from an absent key.
type fileConfig struct {
	Config
	Headless      *bool `json:"headless"`
	LaunchRetries *int  `json:"launchRetries"`
	Cache         struct {
		CacheConfig
		Enabled *bool `json:"enabled"`
	} `json:"cache"`
	Cloudflare struct {
		TimeoutSeconds *int `json:"timeoutSeconds"`
		PollMillis     *int `json:"pollMillis"`
		SettleMillis   *int `json:"settleMillis"`
	} `json:"cloudflare"`
}

func loadFileRaw() (fileConfig, bool, error) {
	path, err := ConfigPath()
	if err != nil {
		return fileConfig{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileConfig{}, false, nil
		}
		return fileConfig{}, false, fmt.Errorf("reading config file: %w", err)
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, false, fmt.Errorf("parsing config file: %w", err)
	}
	return fc, true, nil
}

func mergeFile(dst *Config, src fileConfig) {
	if src.Browser != "" {
		dst.Browser = src.Browser
	}
	if src.BrowserExecutablePath != "" {
		dst.BrowserExecutablePath = src.BrowserExecutablePath
	}
	if src.RemoteURL != "" {
		dst.RemoteURL = src.RemoteURL
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.Headless != nil {
		dst.Headless = *src.Headless
	}
	if src.WindowWidth > 0 {
		dst.WindowWidth = src.WindowWidth
	}
	if src.WindowHeight > 0 {
		dst.WindowHeight = src.WindowHeight
	}
	if src.LaunchRetries != nil && *src.LaunchRetries >= 0 {
		dst.LaunchRetries = *src.LaunchRetries
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = *src.Cache.Enabled
	}
	if src.Cache.Backend != "" {
		dst.Cache.Backend = src.Cache.Backend
	}
	if src.Cache.Path != "" {
		dst.Cache.Path = src.Cache.Path
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	if v := src.Cloudflare.TimeoutSeconds; v != nil && *v > 0 {
		dst.Cloudflare.TimeoutSeconds = *v
	}
	if v := src.Cloudflare.PollMillis; v != nil && *v > 0 {
		dst.Cloudflare.PollMillis = *v
	}
	// Zero is a valid settle delay.
	if v := src.Cloudflare.SettleMillis; v != nil && *v >= 0 {
		dst.Cloudflare.SettleMillis = *v
	}
}

var envKeys = map[string]string{
	"PAGEFETCH_BROWSER":       "browser",
	"PAGEFETCH_BROWSER_PATH":  "browserExecutablePath",
	"PAGEFETCH_REMOTE_URL":    "remoteURL",
	"PAGEFETCH_DATA_DIR":      "dataDir",
	"PAGEFETCH_CACHE_BACKEND": "cache.backend",
	"PAGEFETCH_CACHE_PATH":    "cache.path",
	"PAGEFETCH_CACHE_TTL":     "cache.ttlSeconds",
	"PAGEFETCH_LOG_LEVEL":     "logLevel",
}

func mergeEnv(cfg *Config) error {
	for env, key := range envKeys {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "browser":
		cfg.Browser = strings.ToLower(strings.TrimSpace(value))
	case "browserExecutablePath":
		cfg.BrowserExecutablePath = value
	case "remoteURL":
		cfg.RemoteURL = value
	case "dataDir":
		cfg.DataDir = value
	case "logLevel":
		cfg.LogLevel = strings.ToLower(value)
	case "headless":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("headless must be a boolean: %w", err)
		}
		cfg.Headless = b
	case "windowWidth":
		return setPositive(&cfg.WindowWidth, key, value)
	case "windowHeight":
		return setPositive(&cfg.WindowHeight, key, value)
	case "launchRetries":
		return setInt(&cfg.LaunchRetries, key, value)
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache.enabled must be a boolean: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.backend":
		backend := strings.ToLower(value)
		if backend != "json" && backend != "sqlite" {
			return fmt.Errorf("cache.backend must be json or sqlite, got %q", value)
		}
		cfg.Cache.Backend = backend
	case "cache.path":
		cfg.Cache.Path = value
	case "cache.ttlSeconds":
		return setPositive(&cfg.Cache.TTLSeconds, key, value)
	case "cloudflare.timeoutSeconds":
		return setPositive(&cfg.Cloudflare.TimeoutSeconds, key, value)
	case "cloudflare.pollMillis":
		return setPositive(&cfg.Cloudflare.PollMillis, key, value)
	case "cloudflare.settleMillis":
		return setInt(&cfg.Cloudflare.SettleMillis, key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if n < 0 {
		return fmt.Errorf("%s must not be negative", key)
	}
	*dst = n
	return nil
}

// setPositive is setInt for keys where zero has no meaning.
func setPositive(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if n <= 0 {
		return fmt.Errorf("%s must be positive", key)
	}
	*dst = n
	return nil
}
