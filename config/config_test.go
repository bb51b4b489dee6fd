package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func setRequired(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_REGISTER_KEY", "admin-key")
	t.Setenv("WORKER_REGISTER_KEY", "worker-key")
	t.Setenv("WORKER_REMOVAL_KEY", "removal-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected default token ttl 1h, got %s", cfg.TokenTTL)
	}
	if !cfg.ReopenResolvedOnRemoval {
		t.Error("expected resolved complaints to be reopened on removal by default")
	}
	if cfg.MongoTransactions {
		t.Error("expected transactions disabled by default")
	}
	if cfg.ComplaintDailyLimit != 10 {
		t.Errorf("expected default daily limit 10, got %d", cfg.ComplaintDailyLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("REOPEN_RESOLVED_ON_REMOVAL", "false")
	t.Setenv("MONGODB_TRANSACTIONS", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PUBLIC_BASE_URL", "https://api.example/")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.TokenTTL != 15*time.Minute {
		t.Errorf("expected 15m, got %s", cfg.TokenTTL)
	}
	if cfg.ReopenResolvedOnRemoval {
		t.Error("expected override to disable reopening")
	}
	if !cfg.MongoTransactions {
		t.Error("expected override to enable transactions")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.PublicBaseURL != "https://api.example" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.PublicBaseURL)
	}
}

func TestLoadMissingSecrets(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_REGISTER_KEY", "")
	t.Setenv("WORKER_REGISTER_KEY", "worker-key")
	t.Setenv("WORKER_REMOVAL_KEY", "removal-key")

	_, err := load(viper.New())
	if err == nil {
		t.Fatal("expected error for missing secrets")
	}
	for _, key := range []string{"JWT_SECRET", "ADMIN_REGISTER_KEY"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("expected error to mention %s, got %v", key, err)
		}
	}
}
