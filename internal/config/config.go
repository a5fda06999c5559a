package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	analysis "glucose-sentinel/internal/analysis/domain"
)

// Config is the full service configuration. Defaults cover a local setup;
// a yaml file pointed at by GLUCOSE_CONFIG overrides defaults, and
// environment variables fill anything the file left empty.
type Config struct {
	DatabaseURL string `yaml:"database_url"`
	HTTPAddr    string `yaml:"http_addr"`

	Analysis analysis.Settings `yaml:"analysis"`

	Alerts AlertConfig `yaml:"alerts"`
}

// AlertConfig configures alert composition and delivery.
type AlertConfig struct {
	Sender     string   `yaml:"sender"`
	Recipients []string `yaml:"recipients"`

	SMTPAddr     string `yaml:"smtp_addr"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`

	WebhookURL string `yaml:"webhook_url"`

	Template        string        `yaml:"template"`
	AttachPDF       bool          `yaml:"attach_pdf"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
}

// Load builds the configuration from defaults, optional yaml file and env.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr: ":8080",
		Analysis: analysis.DefaultSettings(),
		Alerts: AlertConfig{
			DispatchTimeout: 10 * time.Second,
		},
	}

	if path := os.Getenv("GLUCOSE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = getenvDefault("DATABASE_URL", os.Getenv("PG_DSN"))
	}
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}

	cfg.Analysis.WindowSize = getenvIntDefault("ANALYSIS_WINDOW_SIZE", cfg.Analysis.WindowSize)
	cfg.Analysis.HyperThreshold = getenvFloatDefault("ANALYSIS_HYPER_THRESHOLD", cfg.Analysis.HyperThreshold)
	cfg.Analysis.HypoThreshold = getenvFloatDefault("ANALYSIS_HYPO_THRESHOLD", cfg.Analysis.HypoThreshold)
	cfg.Analysis.SampleIntervalMinutes = getenvFloatDefault("ANALYSIS_SAMPLE_INTERVAL_MINUTES", cfg.Analysis.SampleIntervalMinutes)
	cfg.Analysis.MaxDelta15Min = getenvFloatDefault("ANALYSIS_MAX_DELTA_15MIN", cfg.Analysis.MaxDelta15Min)

	if cfg.Alerts.Sender == "" {
		cfg.Alerts.Sender = os.Getenv("ALERT_SENDER")
	}
	if len(cfg.Alerts.Recipients) == 0 {
		cfg.Alerts.Recipients = splitCSV(os.Getenv("ALERT_RECIPIENTS"))
	}
	if cfg.Alerts.SMTPAddr == "" {
		cfg.Alerts.SMTPAddr = os.Getenv("ALERT_SMTP_ADDR")
	}
	if cfg.Alerts.SMTPUsername == "" {
		cfg.Alerts.SMTPUsername = os.Getenv("ALERT_SMTP_USERNAME")
	}
	if cfg.Alerts.SMTPPassword == "" {
		cfg.Alerts.SMTPPassword = os.Getenv("ALERT_SMTP_PASSWORD")
	}
	if cfg.Alerts.WebhookURL == "" {
		cfg.Alerts.WebhookURL = os.Getenv("ALERT_WEBHOOK_URL")
	}
	if !cfg.Alerts.AttachPDF {
		cfg.Alerts.AttachPDF = getenvBool("ALERT_ATTACH_PDF")
	}
	if timeout := getenvDuration("ALERT_DISPATCH_TIMEOUT", 0); timeout > 0 {
		cfg.Alerts.DispatchTimeout = timeout
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks required fields and analysis invariants.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL or PG_DSN is required")
	}
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	if c.Alerts.SMTPAddr == "" && c.Alerts.WebhookURL == "" {
		return errors.New("config: at least one alert channel (smtp_addr or webhook_url) is required")
	}
	if c.Alerts.SMTPAddr != "" {
		if c.Alerts.Sender == "" {
			return errors.New("config: alert sender is required with smtp")
		}
		if len(c.Alerts.Recipients) == 0 {
			return errors.New("config: alert recipients are required with smtp")
		}
	}
	return nil
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string) bool {
	value := os.Getenv(key)
	if value == "" {
		return false
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
