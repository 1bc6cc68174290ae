// Package config loads runtime settings from an optional TOML file with
// environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"shade-terminal/internal/prefstore"
	"shade-terminal/internal/theme"
)

const (
	defaultHost               = "0.0.0.0"
	defaultPort               = 2223
	defaultHostKeyPath        = ".data/host_ed25519"
	defaultIdleTimeout        = 120 * time.Second
	defaultMaxSessions        = 32
	defaultRateLimitPerMinute = 30
	defaultRateLimitBurst     = 10
	defaultAnnounceTTL        = time.Second
	defaultSystemPoll         = 3 * time.Second
	maximumConfiguredSessions = 1024
)

// Config captures startup settings for the shade entrypoints.
type Config struct {
	DefaultTheme       theme.Theme
	PreferencePath     string
	AnnounceTTL        time.Duration
	SystemPollInterval time.Duration
	ChromeTint         bool
	WatchPreference    bool

	Host               string
	Port               int
	HostKeyPath        string
	IdleTimeout        time.Duration
	MaxSessions        int
	RateLimitPerMinute int
	RateLimitBurst     int
}

// fileConfig mirrors the TOML layout of config.toml.
type fileConfig struct {
	Theme struct {
		Default        string   `toml:"default"`
		PreferencePath string   `toml:"preference_path"`
		AnnounceTTL    Duration `toml:"announce_ttl"`
		SystemPoll     Duration `toml:"system_poll"`
		ChromeTint     *bool    `toml:"chrome_tint"`
		Watch          *bool    `toml:"watch"`
	} `toml:"theme"`
	SSH struct {
		Host               string   `toml:"host"`
		Port               int      `toml:"port"`
		HostKeyPath        string   `toml:"host_key_path"`
		IdleTimeout        Duration `toml:"idle_timeout"`
		MaxSessions        int      `toml:"max_sessions"`
		RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
		RateLimitBurst     int      `toml:"rate_limit_burst"`
	} `toml:"ssh"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DefaultTheme:       theme.Default,
		PreferencePath:     prefstore.DefaultPath(),
		AnnounceTTL:        defaultAnnounceTTL,
		SystemPollInterval: defaultSystemPoll,
		ChromeTint:         true,
		WatchPreference:    true,
		Host:               defaultHost,
		Port:               defaultPort,
		HostKeyPath:        defaultHostKeyPath,
		IdleTimeout:        defaultIdleTimeout,
		MaxSessions:        defaultMaxSessions,
		RateLimitPerMinute: defaultRateLimitPerMinute,
		RateLimitBurst:     defaultRateLimitBurst,
	}
}

// Load reads the standard config file if present, then applies environment
// overrides. Search order:
//  1. $XDG_CONFIG_HOME/shade/config.toml
//  2. ~/.config/shade/config.toml
func Load() (Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	cfg := Default()
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific TOML file, then applies
// environment overrides.
func LoadFromFile(path string) (Config, error) {
	cfg := Default()

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		if err := applyFileConfig(&cfg, fc); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func configSearchPaths() []string {
	var paths []string
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		paths = append(paths, filepath.Join(base, "shade", "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "shade", "config.toml"))
	}
	return paths
}

func applyFileConfig(cfg *Config, fc fileConfig) error {
	if fc.Theme.Default != "" {
		t, err := theme.Parse(fc.Theme.Default)
		if err != nil {
			return fmt.Errorf("theme.default: %w", err)
		}
		cfg.DefaultTheme = t
	}
	if fc.Theme.PreferencePath != "" {
		cfg.PreferencePath = filepath.Clean(fc.Theme.PreferencePath)
	}
	if fc.Theme.AnnounceTTL.Duration > 0 {
		cfg.AnnounceTTL = fc.Theme.AnnounceTTL.Duration
	}
	if fc.Theme.SystemPoll.Duration > 0 {
		cfg.SystemPollInterval = fc.Theme.SystemPoll.Duration
	}
	if fc.Theme.ChromeTint != nil {
		cfg.ChromeTint = *fc.Theme.ChromeTint
	}
	if fc.Theme.Watch != nil {
		cfg.WatchPreference = *fc.Theme.Watch
	}

	if fc.SSH.Host != "" {
		cfg.Host = fc.SSH.Host
	}
	if fc.SSH.Port != 0 {
		if fc.SSH.Port < 1 || fc.SSH.Port > 65535 {
			return fmt.Errorf("ssh.port must be between 1 and 65535")
		}
		cfg.Port = fc.SSH.Port
	}
	if fc.SSH.HostKeyPath != "" {
		cfg.HostKeyPath = filepath.Clean(fc.SSH.HostKeyPath)
	}
	if fc.SSH.IdleTimeout.Duration > 0 {
		cfg.IdleTimeout = fc.SSH.IdleTimeout.Duration
	}
	if fc.SSH.MaxSessions != 0 {
		if fc.SSH.MaxSessions < 1 || fc.SSH.MaxSessions > maximumConfiguredSessions {
			return fmt.Errorf("ssh.max_sessions must be between 1 and %d", maximumConfiguredSessions)
		}
		cfg.MaxSessions = fc.SSH.MaxSessions
	}
	if fc.SSH.RateLimitPerMinute != 0 {
		if fc.SSH.RateLimitPerMinute < 1 {
			return fmt.Errorf("ssh.rate_limit_per_minute must be positive")
		}
		cfg.RateLimitPerMinute = fc.SSH.RateLimitPerMinute
	}
	if fc.SSH.RateLimitBurst != 0 {
		if fc.SSH.RateLimitBurst < 1 {
			return fmt.Errorf("ssh.rate_limit_burst must be positive")
		}
		cfg.RateLimitBurst = fc.SSH.RateLimitBurst
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if raw, ok := os.LookupEnv("SHADE_THEME_DEFAULT"); ok {
		t, err := theme.Parse(raw)
		if err != nil {
			return fmt.Errorf("SHADE_THEME_DEFAULT: %w", err)
		}
		cfg.DefaultTheme = t
	}

	path, err := readRequiredOrDefault("SHADE_PREFERENCE_PATH", cfg.PreferencePath)
	if err != nil {
		return err
	}
	cleanPath := filepath.Clean(path)
	if cleanPath == "." {
		return fmt.Errorf("SHADE_PREFERENCE_PATH must not resolve to current directory")
	}
	cfg.PreferencePath = cleanPath

	if cfg.AnnounceTTL, err = readDuration("SHADE_ANNOUNCE_TTL", cfg.AnnounceTTL); err != nil {
		return err
	}
	if cfg.SystemPollInterval, err = readDuration("SHADE_SYSTEM_POLL", cfg.SystemPollInterval); err != nil {
		return err
	}
	if cfg.ChromeTint, err = readBool("SHADE_CHROME_TINT", cfg.ChromeTint); err != nil {
		return err
	}
	if cfg.WatchPreference, err = readBool("SHADE_WATCH", cfg.WatchPreference); err != nil {
		return err
	}

	if cfg.Host, err = readRequiredOrDefault("SHADE_SSH_HOST", cfg.Host); err != nil {
		return err
	}
	if cfg.Port, err = readInt("SHADE_SSH_PORT", cfg.Port, 1, 65535); err != nil {
		return err
	}
	hostKeyPath, err := readRequiredOrDefault("SHADE_SSH_HOST_KEY_PATH", cfg.HostKeyPath)
	if err != nil {
		return err
	}
	cleanHostKeyPath := filepath.Clean(hostKeyPath)
	if cleanHostKeyPath == "." {
		return fmt.Errorf("SHADE_SSH_HOST_KEY_PATH must not resolve to current directory")
	}
	cfg.HostKeyPath = cleanHostKeyPath

	if cfg.IdleTimeout, err = readDuration("SHADE_SSH_IDLE_TIMEOUT", cfg.IdleTimeout); err != nil {
		return err
	}
	if cfg.MaxSessions, err = readInt("SHADE_SSH_MAX_SESSIONS", cfg.MaxSessions, 1, maximumConfiguredSessions); err != nil {
		return err
	}
	if cfg.RateLimitPerMinute, err = readInt("SHADE_SSH_RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute, 1, 10000); err != nil {
		return err
	}
	if cfg.RateLimitBurst, err = readInt("SHADE_SSH_RATE_LIMIT_BURST", cfg.RateLimitBurst, 1, 10000); err != nil {
		return err
	}
	return nil
}

func readRequiredOrDefault(key, fallback string) (string, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	if raw == "" {
		return "", fmt.Errorf("%s must not be empty", key)
	}
	return raw, nil
}

func readInt(key string, fallback, min, max int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if parsed < min || parsed > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}
	return parsed, nil
}

func readDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return parsed, nil
}

func readBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}
