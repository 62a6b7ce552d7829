package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	SeedReservedCause      bool   `yaml:"seed_reserved_cause"`
}

// LoggingConfig holds log level and file sink settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Directory string `yaml:"directory"`
}

// ClassifierConfig holds the stop-classification policy. The thresholds
// and reserved codes vary per deployment, so none of them are hardcoded.
type ClassifierConfig struct {
	MicroStopThresholdSeconds int    `yaml:"micro_stop_threshold_seconds"`
	NonConsideredCauseCode    string `yaml:"non_considered_cause_code"`
	DefaultCauseCode          string `yaml:"default_cause_code"`
	CountOpenStops            *bool  `yaml:"count_open_stops"`
}

// AlertsConfig holds the open-stop alert watcher configuration.
type AlertsConfig struct {
	Enabled              bool          `yaml:"enabled"`
	IntervalSeconds      int           `yaml:"interval_seconds"`
	Interval             time.Duration `yaml:"-"` // Ignored by YAML parser
	OpenStopAfterSeconds int           `yaml:"open_stop_after_seconds"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// CountOpenStopsEnabled reports whether open stops contribute their
// elapsed time to downtime aggregates. Defaults to true when unset.
func (c ClassifierConfig) CountOpenStopsEnabled() bool {
	return c.CountOpenStops == nil || *c.CountOpenStops
}

// Load reads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Classifier.MicroStopThresholdSeconds <= 0 {
		cfg.Classifier.MicroStopThresholdSeconds = 30
	}
	if cfg.Classifier.NonConsideredCauseCode == "" {
		cfg.Classifier.NonConsideredCauseCode = "NC"
	}

	if cfg.Alerts.IntervalSeconds <= 0 {
		cfg.Alerts.IntervalSeconds = 60
	}
	cfg.Alerts.Interval = time.Duration(cfg.Alerts.IntervalSeconds) * time.Second
	if cfg.Alerts.OpenStopAfterSeconds <= 0 {
		cfg.Alerts.OpenStopAfterSeconds = 900
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
