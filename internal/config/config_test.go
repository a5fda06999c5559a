package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithEnv(t *testing.T) {
	t.Setenv("GLUCOSE_CONFIG", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/glucose")
	t.Setenv("ALERT_SMTP_ADDR", "mail.example.com:587")
	t.Setenv("ALERT_SENDER", "alerts@example.com")
	t.Setenv("ALERT_RECIPIENTS", "a@example.com, b@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr %q", cfg.HTTPAddr)
	}
	if cfg.Analysis.WindowSize != 10 || cfg.Analysis.HyperThreshold != 180 || cfg.Analysis.HypoThreshold != 70 {
		t.Fatalf("unexpected analysis defaults %+v", cfg.Analysis)
	}
	if len(cfg.Alerts.Recipients) != 2 || cfg.Alerts.Recipients[1] != "b@example.com" {
		t.Fatalf("unexpected recipients %v", cfg.Alerts.Recipients)
	}
	if cfg.Alerts.DispatchTimeout != 10*time.Second {
		t.Fatalf("unexpected dispatch timeout %v", cfg.Alerts.DispatchTimeout)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database_url: postgres://db/glucose
http_addr: ":9090"
analysis:
  window_size: 5
  hyper_threshold: 200
alerts:
  webhook_url: https://hooks.example.com/alerts
  attach_pdf: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GLUCOSE_CONFIG", path)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ALERT_SMTP_ADDR", "")
	t.Setenv("ALERT_SENDER", "")
	t.Setenv("ALERT_RECIPIENTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://db/glucose" || cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Analysis.WindowSize != 5 || cfg.Analysis.HyperThreshold != 200 {
		t.Fatalf("yaml analysis overrides not applied: %+v", cfg.Analysis)
	}
	if cfg.Analysis.HypoThreshold != 70 {
		t.Fatalf("untouched defaults must survive yaml merge: %+v", cfg.Analysis)
	}
	if !cfg.Alerts.AttachPDF || cfg.Alerts.WebhookURL == "" {
		t.Fatalf("unexpected alert config %+v", cfg.Alerts)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("GLUCOSE_CONFIG", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PG_DSN", "")
	t.Setenv("ALERT_WEBHOOK_URL", "https://hooks.example.com/alerts")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without database url")
	}
}

func TestLoadRequiresChannel(t *testing.T) {
	t.Setenv("GLUCOSE_CONFIG", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/glucose")
	t.Setenv("ALERT_SMTP_ADDR", "")
	t.Setenv("ALERT_WEBHOOK_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without any alert channel")
	}
}
