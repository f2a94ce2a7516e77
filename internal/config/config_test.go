package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("HISTORY_WINDOW", "")
	t.Setenv("UNATTENDED_MINUTES_MIN", "")
	t.Setenv("UNATTENDED_MINUTES_MAX", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.LLMModel != "llama3" {
		t.Fatalf("expected default model, got %s", cfg.LLMModel)
	}
	if cfg.HistoryWindow != 6 {
		t.Fatalf("expected default history window, got %d", cfg.HistoryWindow)
	}
	if cfg.SweepInterval != 60*time.Second {
		t.Fatalf("expected default sweep interval, got %s", cfg.SweepInterval)
	}
	if cfg.UnattendedMin != 15*time.Minute || cfg.UnattendedMax != 30*time.Minute {
		t.Fatalf("expected default unattended window, got %s..%s", cfg.UnattendedMin, cfg.UnattendedMax)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/chat")
	t.Setenv("CATALOG_DATABASE_URL", "postgres://user@host/erp")
	t.Setenv("LLM_BASE_URL", "http://inference:8000/v1")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("UNATTENDED_MINUTES_MIN", "10")
	t.Setenv("UNATTENDED_MINUTES_MAX", "45")
	t.Setenv("SENDGRID_FROM_NAME", "Asistente Julio")
	cfg := Load()
	if cfg.Port != "9191" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.ChatDatabaseURL != "postgres://user@host/chat" {
		t.Fatalf("unexpected chat database url %s", cfg.ChatDatabaseURL)
	}
	if cfg.CatalogDatabaseURL != "postgres://user@host/erp" {
		t.Fatalf("unexpected catalog database url %s", cfg.CatalogDatabaseURL)
	}
	if cfg.LLMBaseURL != "http://inference:8000/v1" {
		t.Fatalf("unexpected llm base url %s", cfg.LLMBaseURL)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("unexpected sweep interval %s", cfg.SweepInterval)
	}
	if cfg.UnattendedMin != 10*time.Minute || cfg.UnattendedMax != 45*time.Minute {
		t.Fatalf("unexpected unattended window %s..%s", cfg.UnattendedMin, cfg.UnattendedMax)
	}
	if cfg.SendGridFromName != "Asistente Julio" {
		t.Fatalf("unexpected sender name %s", cfg.SendGridFromName)
	}
}
