package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points the config directory at a temp dir and clears env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for env := range envKeys {
		t.Setenv(env, "")
	}
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Browser != "" {
		t.Errorf("Default browser = %q, want empty (platform default)", cfg.Browser)
	}
	if !cfg.Headless {
		t.Error("Default headless should be true")
	}
	if cfg.LaunchRetries != 2 {
		t.Errorf("Default launchRetries = %d, want 2", cfg.LaunchRetries)
	}
	if cfg.WindowWidth != 1920 || cfg.WindowHeight != 1080 {
		t.Errorf("Default window = %dx%d, want 1920x1080", cfg.WindowWidth, cfg.WindowHeight)
	}
	if !cfg.Cache.Enabled {
		t.Error("Default cache should be enabled")
	}
	if cfg.Cache.Backend != "json" {
		t.Errorf("Default backend = %q, want json", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL() != time.Hour {
		t.Errorf("Default TTL = %v, want 1h", cfg.Cache.TTL())
	}
	if cfg.Cloudflare.Timeout() != 50*time.Second {
		t.Errorf("Default challenge timeout = %v, want 50s", cfg.Cloudflare.Timeout())
	}
	if cfg.Cloudflare.PollInterval() != 250*time.Millisecond {
		t.Errorf("Default poll interval = %v, want 250ms", cfg.Cloudflare.PollInterval())
	}
	if cfg.Cloudflare.Settle() != 2*time.Second {
		t.Errorf("Default settle = %v, want 2s", cfg.Cloudflare.Settle())
	}
}

func TestMergeEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PAGEFETCH_BROWSER", "Chromium")
	t.Setenv("PAGEFETCH_BROWSER_PATH", "/Opt/Google/Chrome")
	t.Setenv("PAGEFETCH_CACHE_BACKEND", "sqlite")
	t.Setenv("PAGEFETCH_CACHE_TTL", "120")
	t.Setenv("PAGEFETCH_LOG_LEVEL", "DEBUG")

	cfg := Default()
	if err := mergeEnv(&cfg); err != nil {
		t.Fatalf("mergeEnv error: %v", err)
	}

	if cfg.Browser != "chromium" {
		t.Errorf("Browser = %q, want %q", cfg.Browser, "chromium")
	}
	// Paths keep their case.
	if cfg.BrowserExecutablePath != "/Opt/Google/Chrome" {
		t.Errorf("BrowserExecutablePath = %q", cfg.BrowserExecutablePath)
	}
	if cfg.Cache.Backend != "sqlite" {
		t.Errorf("Cache.Backend = %q, want sqlite", cfg.Cache.Backend)
	}
	if cfg.Cache.TTLSeconds != 120 {
		t.Errorf("Cache.TTLSeconds = %d, want 120", cfg.Cache.TTLSeconds)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestMergeEnv_InvalidInt(t *testing.T) {
	isolate(t)
	t.Setenv("PAGEFETCH_CACHE_TTL", "soon")

	cfg := Default()
	err := mergeEnv(&cfg)
	if err == nil {
		t.Fatal("Expected error for malformed PAGEFETCH_CACHE_TTL")
	}
	if !strings.Contains(err.Error(), "PAGEFETCH_CACHE_TTL") {
		t.Errorf("Error should name the variable, got %v", err)
	}
}

func TestSetField(t *testing.T) {
	cfg := Default()

	tests := []struct {
		key   string
		value string
	}{
		{"browser", "EDGE"},
		{"browserExecutablePath", "/usr/bin/msedge"},
		{"remoteURL", "ws://127.0.0.1:9222"},
		{"dataDir", "/tmp/pf"},
		{"headless", "false"},
		{"windowWidth", "1366"},
		{"windowHeight", "900"},
		{"launchRetries", "0"},
		{"cache.enabled", "false"},
		{"cache.backend", "sqlite"},
		{"cache.path", "/tmp/pf.db"},
		{"cache.ttlSeconds", "60"},
		{"cloudflare.timeoutSeconds", "10"},
		{"cloudflare.pollMillis", "100"},
		{"cloudflare.settleMillis", "0"},
	}

	for _, tt := range tests {
		if err := SetField(&cfg, tt.key, tt.value); err != nil {
			t.Errorf("SetField(%q, %q) error: %v", tt.key, tt.value, err)
		}
	}

	if cfg.Browser != "edge" {
		t.Errorf("Browser = %q, want edge", cfg.Browser)
	}
	if cfg.Headless {
		t.Error("Headless should be false")
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be false")
	}
	if cfg.WindowWidth != 1366 {
		t.Errorf("WindowWidth = %d, want 1366", cfg.WindowWidth)
	}
	if cfg.Cloudflare.Settle() != 0 {
		t.Errorf("Settle = %v, want 0", cfg.Cloudflare.Settle())
	}
	if cfg.LaunchRetries != 0 {
		t.Errorf("LaunchRetries = %d, want 0", cfg.LaunchRetries)
	}
}

func TestSetField_UnknownKey(t *testing.T) {
	cfg := Default()
	if err := SetField(&cfg, "nonexistent", "value"); err == nil {
		t.Error("Expected error for unknown key")
	}
}

func TestSetField_InvalidValues(t *testing.T) {
	cfg := Default()
	cases := []struct{ key, value string }{
		{"cache.ttlSeconds", "notanumber"},
		{"cloudflare.timeoutSeconds", "-1"},
		{"headless", "maybe"},
		{"cache.backend", "redis"},
		{"launchRetries", "-2"},
		// Zero would be replaced by the default on the next Load.
		{"cache.ttlSeconds", "0"},
		{"cloudflare.timeoutSeconds", "0"},
		{"cloudflare.pollMillis", "0"},
		{"windowWidth", "0"},
		{"windowHeight", "0"},
	}
	for _, c := range cases {
		if err := SetField(&cfg, c.key, c.value); err == nil {
			t.Errorf("SetField(%q, %q) expected error", c.key, c.value)
		}
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, appName, "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	file := `{"browser":"chrome","logLevel":"warn","cache":{"ttlSeconds":600,"enabled":false},"headless":false}`
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAGEFETCH_LOG_LEVEL", "error")

	cfg, err := Load(map[string]string{"browser": "edge", "cache.path": ""})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Browser != "edge" {
		t.Errorf("Browser = %q, want override edge", cfg.Browser)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want env value error", cfg.LogLevel)
	}
	if cfg.Cache.TTLSeconds != 600 {
		t.Errorf("TTLSeconds = %d, want file value 600", cfg.Cache.TTLSeconds)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should honour explicit false in file")
	}
	if cfg.Headless {
		t.Error("Headless should honour explicit false in file")
	}
	if cfg.Cloudflare.TimeoutSeconds != 50 {
		t.Errorf("TimeoutSeconds = %d, want default 50", cfg.Cloudflare.TimeoutSeconds)
	}
}

func TestLoad_NoFile(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !cfg.Cache.Enabled || !cfg.Headless {
		t.Error("Missing file should leave boolean defaults untouched")
	}
}

func TestLoad_BadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, appName, "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(nil); err == nil {
		t.Error("Expected parse error")
	}
}

func TestSetField_SaveLoadRoundTrip(t *testing.T) {
	isolate(t)
	cfg, err := LoadFileWithDefaults()
	if err != nil {
		t.Fatalf("LoadFileWithDefaults error: %v", err)
	}
	values := map[string]string{
		"browser":                   "chromium",
		"headless":                  "false",
		"windowWidth":               "800",
		"windowHeight":              "600",
		"launchRetries":             "0",
		"cache.enabled":             "false",
		"cache.ttlSeconds":          "1",
		"cloudflare.timeoutSeconds": "5",
		"cloudflare.pollMillis":     "1",
		"cloudflare.settleMillis":   "0",
	}
	for key, value := range values {
		if err := SetField(&cfg, key, value); err != nil {
			t.Fatalf("SetField(%q, %q) error: %v", key, value, err)
		}
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got != cfg {
		t.Errorf("Load after Save = %+v, want %+v", got, cfg)
	}
}

func TestDataDir(t *testing.T) {
	dir := isolate(t)
	got, err := DataDir(Default())
	if err != nil {
		t.Fatalf("DataDir error: %v", err)
	}
	if want := filepath.Join(dir, appName, "data"); got != want {
		t.Errorf("DataDir = %q, want %q", got, want)
	}

	cfg := Default()
	cfg.DataDir = "/srv/pagefetch"
	if got, _ := DataDir(cfg); got != "/srv/pagefetch" {
		t.Errorf("DataDir = %q, want explicit dir", got)
	}
}

func TestCachePath(t *testing.T) {
	cfg := Default()
	if got := CachePath(cfg); filepath.Base(got) != "pagefetch_cached_requests.json" {
		t.Errorf("CachePath = %q", got)
	}
	cfg.Cache.Backend = "sqlite"
	if got := CachePath(cfg); filepath.Ext(got) != ".db" {
		t.Errorf("CachePath = %q, want .db", got)
	}
	cfg.Cache.Path = "/var/cache/pf.db"
	if got := CachePath(cfg); got != "/var/cache/pf.db" {
		t.Errorf("CachePath = %q, want explicit path", got)
	}
}

func TestLoad_ZeroSettleFromFile(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Cloudflare.SettleMillis = 0
	if err := Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Cloudflare.SettleMillis != 0 {
		t.Errorf("SettleMillis = %d, want 0 from file", got.Cloudflare.SettleMillis)
	}
	if got.Cloudflare.TimeoutSeconds != 50 {
		t.Errorf("TimeoutSeconds = %d, want 50", got.Cloudflare.TimeoutSeconds)
	}
}
