package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"shade-terminal/internal/theme"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFileOrEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.DefaultTheme != theme.Default {
		t.Fatalf("DefaultTheme = %v, want %v", cfg.DefaultTheme, theme.Default)
	}
	if cfg.AnnounceTTL != time.Second {
		t.Fatalf("AnnounceTTL = %v, want 1s", cfg.AnnounceTTL)
	}
	if !cfg.WatchPreference || !cfg.ChromeTint {
		t.Fatal("watching and chrome tint should default to enabled")
	}
	if cfg.Port != defaultPort || cfg.MaxSessions != defaultMaxSessions {
		t.Fatalf("unexpected SSH defaults: %+v", cfg)
	}
}

func TestLoadFromFileFullConfig(t *testing.T) {
	path := writeConfig(t, `
[theme]
default = "dark"
preference_path = "/tmp/shade-test/theme"
announce_ttl = "2s"
system_poll = "10s"
chrome_tint = false
watch = false

[ssh]
host = "127.0.0.1"
port = 2022
host_key_path = "/tmp/shade-test/hostkey"
idle_timeout = "30s"
max_sessions = 4
rate_limit_per_minute = 12
rate_limit_burst = 3
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() unexpected error: %v", err)
	}
	if cfg.DefaultTheme != theme.Dark {
		t.Fatalf("DefaultTheme = %v, want dark", cfg.DefaultTheme)
	}
	if cfg.PreferencePath != "/tmp/shade-test/theme" {
		t.Fatalf("PreferencePath = %q", cfg.PreferencePath)
	}
	if cfg.AnnounceTTL != 2*time.Second || cfg.SystemPollInterval != 10*time.Second {
		t.Fatalf("durations = %v / %v", cfg.AnnounceTTL, cfg.SystemPollInterval)
	}
	if cfg.ChromeTint || cfg.WatchPreference {
		t.Fatal("expected chrome_tint and watch disabled")
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 2022 || cfg.MaxSessions != 4 {
		t.Fatalf("unexpected SSH settings: %+v", cfg)
	}
	if cfg.IdleTimeout != 30*time.Second || cfg.RateLimitPerMinute != 12 || cfg.RateLimitBurst != 3 {
		t.Fatalf("unexpected SSH limits: %+v", cfg)
	}
}

func TestLoadFromFileInvalidTheme(t *testing.T) {
	path := writeConfig(t, "[theme]\ndefault = \"blue\"\n")
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("LoadFromFile() expected error for invalid theme.default")
	}
}

func TestLoadFromFileInvalidDuration(t *testing.T) {
	path := writeConfig(t, "[theme]\nannounce_ttl = \"soon\"\n")
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("LoadFromFile() expected error for invalid announce_ttl")
	}
}

func TestLoadFromFilePortOutOfRange(t *testing.T) {
	path := writeConfig(t, "[ssh]\nport = 70000\n")
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("LoadFromFile() expected error for out-of-range port")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, "[theme]\ndefault = \"light\"\n\n[ssh]\nport = 2022\n")
	t.Setenv("SHADE_THEME_DEFAULT", "dark")
	t.Setenv("SHADE_SSH_PORT", "2222")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() unexpected error: %v", err)
	}
	if cfg.DefaultTheme != theme.Dark {
		t.Fatalf("DefaultTheme = %v, want dark from env", cfg.DefaultTheme)
	}
	if cfg.Port != 2222 {
		t.Fatalf("Port = %d, want 2222 from env", cfg.Port)
	}
}

func TestEnvInvalidDefaultTheme(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SHADE_THEME_DEFAULT", "mauve")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid SHADE_THEME_DEFAULT")
	}
}

func TestEnvInvalidPort(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SHADE_SSH_PORT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid port")
	}
}

func TestEnvPortOutOfRange(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SHADE_SSH_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for out-of-range port")
	}
}

func TestEnvEmptyHostRejected(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SHADE_SSH_HOST", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for empty host override")
	}
}

func TestEnvInvalidIdleTimeout(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SHADE_SSH_IDLE_TIMEOUT", "not-duration")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
}

func TestEnvInvalidBool(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SHADE_WATCH", "definitely")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid SHADE_WATCH")
	}
}

func TestEnvHostKeyPathCurrentDirRejected(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SHADE_SSH_HOST_KEY_PATH", ".")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for host key path resolving to current directory")
	}
}

func TestEnvPreferencePathCurrentDirRejected(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SHADE_PREFERENCE_PATH", ".")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for preference path resolving to current directory")
	}
}

func TestLoadPicksUpXDGConfigFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	dir := filepath.Join(base, "shade")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[theme]\ndefault = \"dark\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.DefaultTheme != theme.Dark {
		t.Fatalf("DefaultTheme = %v, want dark from XDG config file", cfg.DefaultTheme)
	}
}
