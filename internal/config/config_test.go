package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("EVOLUTION_BASE_URL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.EvolutionBaseURL != "" {
		t.Fatalf("expected empty evolution base url, got %s", cfg.EvolutionBaseURL)
	}
	if cfg.InstanceStatusCacheTTL != 30*time.Second {
		t.Fatalf("expected default status cache ttl, got %s", cfg.InstanceStatusCacheTTL)
	}
	if cfg.BroadcastWorkerCount != 2 {
		t.Fatalf("expected default broadcast workers, got %d", cfg.BroadcastWorkerCount)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no default CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("EVOLUTION_BASE_URL", "https://evo.example.com")
	t.Setenv("EVOLUTION_INSTANCE", "main")
	t.Setenv("EVOLUTION_RETRY_ATTEMPTS", "4")
	t.Setenv("INSTANCE_STATUS_CACHE_TTL", "45s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("BROADCAST_BATCH_SIZE", "50")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.EvolutionBaseURL != "https://evo.example.com" || cfg.EvolutionInstance != "main" {
		t.Fatalf("expected evolution overrides, got %s / %s", cfg.EvolutionBaseURL, cfg.EvolutionInstance)
	}
	if cfg.EvolutionRetryAttempts != 4 {
		t.Fatalf("expected retry attempts override, got %d", cfg.EvolutionRetryAttempts)
	}
	if cfg.InstanceStatusCacheTTL != 45*time.Second {
		t.Fatalf("expected ttl override, got %s", cfg.InstanceStatusCacheTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://staging.example.com" {
		t.Fatalf("expected parsed CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.BroadcastBatchSize != 50 {
		t.Fatalf("expected batch size override, got %d", cfg.BroadcastBatchSize)
	}
}
