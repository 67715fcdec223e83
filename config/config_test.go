package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("crawl:\n  default_genre: cooking\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Crawl.DefaultGenre != "cooking" {
		t.Fatalf("genre = %q", cfg.Crawl.DefaultGenre)
	}
	if cfg.Crawl.DefaultLimit != 5 {
		t.Fatalf("limit default = %d", cfg.Crawl.DefaultLimit)
	}
	if cfg.Analysis.Model != "gemini-2.5-flash" {
		t.Fatalf("model default = %q", cfg.Analysis.Model)
	}
	if cfg.Gateway.Port != "8080" {
		t.Fatalf("port default = %q", cfg.Gateway.Port)
	}
	if cfg.Paths.Raw != "data/raw" || cfg.Paths.KB != "data/trends.db" {
		t.Fatalf("path defaults wrong: %+v", cfg.Paths)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("poll interval = %v", cfg.PollInterval())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for bad yaml")
	}
}

func TestModelEnvOverride(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "gemini-exp")
	cfg := &Config{}
	cfg.applyDefaults()
	if got := cfg.Model(); got != "gemini-exp" {
		t.Fatalf("model = %q, want env override", got)
	}
}
