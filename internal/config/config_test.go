package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model() != "gpt-4o-2024-08-06" {
		t.Errorf("expected openai gpt-4o default, got %q %q", cfg.LLM.Provider, cfg.LLM.Model())
	}
	if cfg.LLM.MaxRetries != 0 {
		t.Errorf("expected retries off by default, got %d", cfg.LLM.MaxRetries)
	}
	if cfg.DeckLocale != "ja" {
		t.Errorf("expected ja locale, got %q", cfg.DeckLocale)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9000")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_MODEL", "gemini-x")
	t.Setenv("LLM_MAX_RETRIES", "2")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("VERIFY_PDF", "false")
	t.Setenv("RUN_TTL", "5m")
	t.Setenv("WORKER_COUNT", "-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.LLM.Model() != "gemini-x" {
		t.Errorf("expected gemini-x, got %q", cfg.LLM.Model())
	}
	if cfg.LLM.MaxRetries != 2 {
		t.Errorf("expected 2 retries, got %d", cfg.LLM.MaxRetries)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("expected 1024, got %d", cfg.MaxUploadBytes)
	}
	if cfg.VerifyPDF {
		t.Error("expected VerifyPDF false")
	}
	if cfg.RunTTL != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.RunTTL)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected invalid worker count to fall back to 4, got %d", cfg.WorkerCount)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deckforge.yaml")
	yaml := `port: "7000"
deck_locale: en
run_ttl: 30m
llm:
  provider: anthropic
  anthropic_api_key: from-file
  rpm: 30
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7001" {
		t.Errorf("expected env to win, got %q", cfg.Port)
	}
	if cfg.DeckLocale != "en" || cfg.RunTTL != 30*time.Minute {
		t.Errorf("expected file values, got %q %s", cfg.DeckLocale, cfg.RunTTL)
	}
	if cfg.LLM.Provider != "anthropic" || cfg.LLM.AnthropicAPIKey != "from-file" || cfg.LLM.RPM != 30 {
		t.Errorf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.LLM.AnthropicModel == "" {
		t.Error("expected defaults to survive a partial file")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("expected missing key error, got %v", err)
	}

	cfg.LLM.OpenAIAPIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid, got %v", err)
	}

	cfg.DeckLocale = "fr"
	if err := cfg.Validate(); err == nil {
		t.Error("expected locale error")
	}

	cfg.DeckLocale = "en"
	cfg.LLM.Provider = "mistral"
	if err := cfg.Validate(); err == nil {
		t.Error("expected provider error")
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "bogus": slog.LevelInfo, "": slog.LevelInfo}
	for in, want := range cases {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}
