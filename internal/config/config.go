// Package config loads the pet shell configuration.
//
// Precedence, lowest to highest: built-in defaults, a .env file in the
// working directory, the YAML config file, then process environment
// variables. Command-line flags override everything (applied in cmd).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default configuration file name, looked up in the
// working directory and then the user's home directory.
const FileName = ".tamabotchi.yaml"

// View selector values. Anything else falls back to ViewCompanion.
const (
	ViewCompanion = "companion"
	ViewPanel     = "panel"
)

// Config holds the pet shell settings.
type Config struct {
	// StoreURL is the base URL of the conversation store agent API.
	StoreURL string `yaml:"store_url"`

	// View selects the surface presented at startup.
	View string `yaml:"view"`

	// ReconcileInterval is the full-reconcile poll period while the
	// panel is open.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`

	// BadgeInterval is the lightweight unread-counter poll period.
	BadgeInterval time.Duration `yaml:"badge_interval"`

	// HTTPTimeout is the fixed per-call timeout against the store.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	Serve ServeConfig `yaml:"serve"`
}

// ServeConfig configures the local development conversation store.
type ServeConfig struct {
	Addr string `yaml:"addr"`
	// Seed enables a few canned conversations so the shell has
	// something to display against a fresh store.
	Seed bool `yaml:"seed"`
}

// Default returns the built-in defaults, matching the agent API's
// conventional port.
func Default() *Config {
	return &Config{
		StoreURL:          "http://127.0.0.1:5000",
		View:              ViewCompanion,
		ReconcileInterval: 8 * time.Second,
		BadgeInterval:     5 * time.Second,
		HTTPTimeout:       30 * time.Second,
		Serve: ServeConfig{
			Addr: "127.0.0.1:5000",
			Seed: true,
		},
	}
}

// Load builds the effective configuration. A missing config file is not an
// error; a malformed one is.
func Load(path string) (*Config, error) {
	// Best-effort .env, the watcher daemons are configured this way too.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = findDefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	cfg.View = NormalizeView(cfg.View)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findDefaultPath() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(home, FileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func applyEnv(cfg *Config) {
	// AGENT_API_URL is the name the store's own daemons use.
	if v := os.Getenv("AGENT_API_URL"); v != "" {
		cfg.StoreURL = v
	}
	if v := os.Getenv("PET_VIEW"); v != "" {
		cfg.View = v
	}
	if v := os.Getenv("PET_RECONCILE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReconcileInterval = d
		}
	}
	if v := os.Getenv("PET_BADGE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.BadgeInterval = d
		}
	}
}

// NormalizeView maps the startup view hint onto the two recognized values.
// Unrecognized or absent selectors default to the companion.
func NormalizeView(view string) string {
	switch strings.ToLower(strings.TrimSpace(view)) {
	case ViewPanel:
		return ViewPanel
	default:
		return ViewCompanion
	}
}

// Validate checks the effective configuration.
func (c *Config) Validate() error {
	if c.StoreURL == "" {
		return fmt.Errorf("store_url is required")
	}
	if !strings.HasPrefix(c.StoreURL, "http://") && !strings.HasPrefix(c.StoreURL, "https://") {
		return fmt.Errorf("store_url must be an HTTP(S) URL")
	}
	if c.ReconcileInterval <= 0 {
		return fmt.Errorf("reconcile_interval must be positive")
	}
	if c.BadgeInterval <= 0 {
		return fmt.Errorf("badge_interval must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	return nil
}
