package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("database.driver = %q", cfg.Database.Driver)
	}
	if cfg.Webhooks.Timeout != 3*time.Second {
		t.Fatalf("webhooks.timeout = %s, want 3s", cfg.Webhooks.Timeout)
	}
	if cfg.Cookies.MaxAge != 24*time.Hour {
		t.Fatalf("cookies.max_age = %s, want 24h", cfg.Cookies.MaxAge)
	}
	if cfg.Payments.Live() {
		t.Fatal("payments.Live() = true without credentials")
	}
}

func TestLoadReadsYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("app:\n  env: production\ndatabase:\n  dsn: " + filepath.Join(dir, "db.sqlite") + "\npayments:\n  merchant_id: m-1\n  mock_delay: 10ms\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OBI_PAYMENTS_MERCHANT_KEY", "k-1")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.App.IsProduction() {
		t.Fatal("IsProduction() = false, want true")
	}
	if !cfg.Payments.Live() {
		t.Fatal("payments.Live() = false, want true with yaml id and env key")
	}
	if cfg.Payments.MockDelay != 10*time.Millisecond {
		t.Fatalf("payments.mock_delay = %s", cfg.Payments.MockDelay)
	}
}
