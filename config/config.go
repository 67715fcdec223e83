package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Paths    PathsConfig    `yaml:"paths"`
}

type AnalysisConfig struct {
	Model           string `yaml:"model"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
}

type CrawlConfig struct {
	DefaultGenre  string `yaml:"default_genre"`
	DefaultLimit  int    `yaml:"default_limit"`
	SampleSeconds int    `yaml:"sample_seconds"`
}

type GatewayConfig struct {
	Port string `yaml:"port"`
}

type PathsConfig struct {
	Raw        string `yaml:"raw"`         // intake dir watched by the planner
	Plans      string `yaml:"plans"`       // one edit-plan JSON per video
	Samples    string `yaml:"samples"`     // bounded trend samples, deleted after analysis
	AssetsBGM  string `yaml:"assets_bgm"`  // harvested background music
	AssetsSE   string `yaml:"assets_se"`   // harvested sound effects
	BGMLibrary string `yaml:"bgm_library"` // curated local music library
	KB         string `yaml:"kb"`          // sqlite knowledge base file
}

// Load reads config.yaml and returns a Config struct
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Analysis.Model == "" {
		c.Analysis.Model = "gemini-2.5-flash"
	}
	if c.Analysis.PollIntervalSec <= 0 {
		c.Analysis.PollIntervalSec = 2
	}
	if c.Crawl.DefaultGenre == "" {
		c.Crawl.DefaultGenre = "vlog"
	}
	if c.Crawl.DefaultLimit <= 0 {
		c.Crawl.DefaultLimit = 5
	}
	if c.Crawl.SampleSeconds <= 0 {
		c.Crawl.SampleSeconds = 60
	}
	if c.Gateway.Port == "" {
		c.Gateway.Port = "8080"
	}
	if c.Paths.Raw == "" {
		c.Paths.Raw = "data/raw"
	}
	if c.Paths.Plans == "" {
		c.Paths.Plans = "data/json"
	}
	if c.Paths.Samples == "" {
		c.Paths.Samples = "data/raw/trend_samples"
	}
	if c.Paths.AssetsBGM == "" {
		c.Paths.AssetsBGM = "data/bgm"
	}
	if c.Paths.AssetsSE == "" {
		c.Paths.AssetsSE = "data/se"
	}
	if c.Paths.BGMLibrary == "" {
		c.Paths.BGMLibrary = "data/bgm_library"
	}
	if c.Paths.KB == "" {
		c.Paths.KB = "data/trends.db"
	}
}

// PollInterval returns the analysis poll interval as a duration
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Analysis.PollIntervalSec) * time.Second
}

// Model returns the analysis model, honoring the GEMINI_MODEL env override
func (c *Config) Model() string {
	if m := os.Getenv("GEMINI_MODEL"); m != "" {
		return m
	}
	return c.Analysis.Model
}
