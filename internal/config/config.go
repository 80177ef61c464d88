package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/repcycle/internal/models"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Sheets     SheetsConfig     `yaml:"sheets"`
	WriteBack  WriteBackConfig  `yaml:"write_back"`
	Goals      GoalsConfig      `yaml:"goals"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
	Journal    JournalConfig    `yaml:"journal"`
	Auth       AuthConfig       `yaml:"auth"`
	Tailscale  TailscaleConfig  `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SheetsConfig holds the published CSV export URL of each group's sheet.
type SheetsConfig struct {
	Chest string `yaml:"chest"`
	Back  string `yaml:"back"`
	Legs  string `yaml:"legs"`
}

// URLs returns the sheet URLs keyed by group.
func (s SheetsConfig) URLs() map[models.Group]string {
	return map[models.Group]string{
		models.Chest: s.Chest,
		models.Back:  s.Back,
		models.Legs:  s.Legs,
	}
}

type WriteBackConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type GoalsConfig struct {
	WeeklyVolumeKg float64 `yaml:"weekly_volume_kg"`
}

// DifficultyConfig points at the difficulty model retrain job. An empty URL
// disables retraining.
type DifficultyConfig struct {
	RetrainURL string        `yaml:"retrain_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// JournalConfig points at the SQLite audit journal. An empty path disables it.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig protects the mutating endpoints when APIKey is set.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

func defaults() *Config {
	return &Config{
		Server:     ServerConfig{Host: "127.0.0.1", Port: 8080},
		WriteBack:  WriteBackConfig{Timeout: 30 * time.Second},
		Goals:      GoalsConfig{WeeklyVolumeKg: 12000},
		Difficulty: DifficultyConfig{Timeout: 2 * time.Minute},
		Tailscale:  TailscaleConfig{Hostname: "repcycle", StateDir: "tsnet-state"},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix REPCYCLE_:
//
//	REPCYCLE_SERVER_HOST, REPCYCLE_SERVER_PORT,
//	REPCYCLE_SHEET_CHEST, REPCYCLE_SHEET_BACK, REPCYCLE_SHEET_LEGS,
//	REPCYCLE_WRITEBACK_URL, REPCYCLE_WEEKLY_GOAL_KG,
//	REPCYCLE_RETRAIN_URL, REPCYCLE_JOURNAL_PATH, REPCYCLE_AUTH_API_KEY
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPCYCLE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPCYCLE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPCYCLE_SHEET_CHEST"); v != "" {
		cfg.Sheets.Chest = v
	}
	if v := os.Getenv("REPCYCLE_SHEET_BACK"); v != "" {
		cfg.Sheets.Back = v
	}
	if v := os.Getenv("REPCYCLE_SHEET_LEGS"); v != "" {
		cfg.Sheets.Legs = v
	}
	if v := os.Getenv("REPCYCLE_WRITEBACK_URL"); v != "" {
		cfg.WriteBack.URL = v
	}
	if v := os.Getenv("REPCYCLE_WEEKLY_GOAL_KG"); v != "" {
		if goal, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Goals.WeeklyVolumeKg = goal
		}
	}
	if v := os.Getenv("REPCYCLE_RETRAIN_URL"); v != "" {
		cfg.Difficulty.RetrainURL = v
	}
	if v := os.Getenv("REPCYCLE_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("REPCYCLE_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	for _, s := range []struct{ name, url string }{
		{"sheets.chest", c.Sheets.Chest},
		{"sheets.back", c.Sheets.Back},
		{"sheets.legs", c.Sheets.Legs},
		{"write_back.url", c.WriteBack.URL},
	} {
		if s.url == "" {
			return fmt.Errorf("%s is required", s.name)
		}
		if u, err := url.Parse(s.url); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL", s.name)
		}
	}
	if c.Goals.WeeklyVolumeKg <= 0 {
		return fmt.Errorf("goals.weekly_volume_kg must be positive")
	}
	if c.WriteBack.Timeout <= 0 {
		return fmt.Errorf("write_back.timeout must be positive")
	}
	if c.Difficulty.RetrainURL != "" {
		if u, err := url.Parse(c.Difficulty.RetrainURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("difficulty.retrain_url must be an absolute URL")
		}
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
