package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "AI_MODEL", "DATABASE_PATH", "MAX_CONTEXT_TOKENS", "SYSTEM_PROMPT_PATH",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ModelID != "gpt-4o" {
		t.Errorf("ModelID = %q, want gpt-4o", cfg.ModelID)
	}
	if cfg.DatabasePath != "nebula.db" {
		t.Errorf("DatabasePath = %q, want nebula.db", cfg.DatabasePath)
	}
	if cfg.MaxContextTokens != 400000 {
		t.Errorf("MaxContextTokens = %d, want 400000", cfg.MaxContextTokens)
	}
	if cfg.IsProduction() {
		t.Error("default env should not be production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("AI_MODEL", "gpt-4o-mini")
	t.Setenv("MAX_CONTEXT_TOKENS", "5000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("IsProduction should be true")
	}
	if cfg.ModelID != "gpt-4o-mini" {
		t.Errorf("ModelID = %q", cfg.ModelID)
	}
	if cfg.MaxContextTokens != 5000 {
		t.Errorf("MaxContextTokens = %d, want 5000", cfg.MaxContextTokens)
	}
}

func TestLoadIgnoresBadInt(t *testing.T) {
	t.Setenv("MAX_CONTEXT_TOKENS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxContextTokens != 400000 {
		t.Errorf("MaxContextTokens = %d, want default on parse failure", cfg.MaxContextTokens)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{ModelID: "m", DatabasePath: "db", MaxContextTokens: 1}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg.MaxContextTokens = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero token ceiling should be rejected")
	}

	cfg = &Config{DatabasePath: "db", MaxContextTokens: 1}
	if err := cfg.Validate(); err == nil {
		t.Error("missing model should be rejected")
	}
}
