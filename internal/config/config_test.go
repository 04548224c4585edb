package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.StoreURL != "http://127.0.0.1:5000" {
		t.Fatalf("StoreURL = %q", cfg.StoreURL)
	}
	if cfg.View != ViewCompanion {
		t.Fatalf("View = %q", cfg.View)
	}
	if cfg.ReconcileInterval != 8*time.Second {
		t.Fatalf("ReconcileInterval = %v", cfg.ReconcileInterval)
	}
	if cfg.BadgeInterval != 5*time.Second {
		t.Fatalf("BadgeInterval = %v", cfg.BadgeInterval)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreURL != Default().StoreURL {
		t.Fatalf("StoreURL = %q", cfg.StoreURL)
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("store_url: http://example.test:9999\nview: panel\nreconcile_interval: 2s\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreURL != "http://example.test:9999" {
		t.Fatalf("StoreURL = %q", cfg.StoreURL)
	}
	if cfg.View != ViewPanel {
		t.Fatalf("View = %q", cfg.View)
	}
	if cfg.ReconcileInterval != 2*time.Second {
		t.Fatalf("ReconcileInterval = %v", cfg.ReconcileInterval)
	}
	// Untouched keys keep their defaults.
	if cfg.BadgeInterval != 5*time.Second {
		t.Fatalf("BadgeInterval = %v", cfg.BadgeInterval)
	}
}

func TestLoadMalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("view: [unterminated"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load() expected error for malformed yaml")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store_url: http://file.test:1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("AGENT_API_URL", "http://env.test:2")
	t.Setenv("PET_BADGE_INTERVAL", "11s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreURL != "http://env.test:2" {
		t.Fatalf("StoreURL = %q", cfg.StoreURL)
	}
	if cfg.BadgeInterval != 11*time.Second {
		t.Fatalf("BadgeInterval = %v", cfg.BadgeInterval)
	}
}

func TestNormalizeView(t *testing.T) {
	cases := map[string]string{
		"panel":     ViewPanel,
		" PANEL ":   ViewPanel,
		"companion": ViewCompanion,
		"window":    ViewCompanion,
		"":          ViewCompanion,
	}
	for in, want := range cases {
		if got := NormalizeView(in); got != want {
			t.Errorf("NormalizeView(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateRejectsBadURL(t *testing.T) {
	cfg := Default()
	cfg.StoreURL = "ftp://nope"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() accepted non-HTTP url")
	}
	cfg.StoreURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() accepted empty url")
	}
}
