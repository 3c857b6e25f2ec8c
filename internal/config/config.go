package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Retrieval strategies. Rendered drives a headless browser session for
// portals that populate listings with client-side script.
const (
	StrategyStatic   = "static"
	StrategyRendered = "rendered"
)

// Source describes one configured job portal. Immutable for the lifetime
// of a run.
type Source struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"` // printf template, %d = page number

	Strategy string `yaml:"strategy"` // static | rendered
	MaxPages int    `yaml:"max_pages"`

	// Randomized inter-request delay bounds, applied before each attempt.
	DelayMinMs int `yaml:"delay_min_ms"`
	DelayMaxMs int `yaml:"delay_max_ms"`

	// Rendered strategy: wait for this selector to appear, or fall back
	// to a fixed settle delay when empty.
	WaitSelector string `yaml:"wait_selector"`
	SettleMs     int    `yaml:"settle_ms"`

	// Circuit-break: stop paging after this many consecutive failures.
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Schedule struct {
		Every   string `yaml:"every"`    // interval, e.g. "1h"
		DailyAt string `yaml:"daily_at"` // "09:00" local time; wins over Every
	} `yaml:"schedule"`

	Run struct {
		MaxConcurrentSources int `yaml:"max_concurrent_sources"`
		RetentionDays        int `yaml:"retention_days"`
	} `yaml:"run"`

	Fetch struct {
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxAttempts    int     `yaml:"max_attempts"`
		HostReqPerSec  float64 `yaml:"host_req_per_sec"`
		HostBurst      int     `yaml:"host_burst"`
	} `yaml:"fetch"`

	Dedup struct {
		// Which normalized listing fields make up the identity digest.
		// What counts as "the same posting" is policy, so it lives here.
		IdentityFields []string `yaml:"identity_fields"`
	} `yaml:"dedup"`

	Report struct {
		Enabled    bool     `yaml:"enabled"`
		SMTPHost   string   `yaml:"smtp_host"`
		SMTPPort   int      `yaml:"smtp_port"`
		From       string   `yaml:"from"`
		Recipients []string `yaml:"recipients"`
		// Password comes from SMTP_PASSWORD or the OS keychain, never yaml.
		Password string `yaml:"-"`
	} `yaml:"report"`

	Sources []Source `yaml:"sources"`
}

func DefaultIdentityFields() []string {
	return []string{"source", "title", "company", "url"}
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets the environment (.env in dev, real env in deploys) override
// the bits that don't belong in a checked-in yaml file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Report.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Report.SMTPPort = p
		}
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		cfg.Report.From = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Report.Password = v
	}
	if v := os.Getenv("JOBRADAR_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	}
}
