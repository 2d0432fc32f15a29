package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Auth. Empty disables bearer auth on the API.
	APIKey string `yaml:"api_key"`

	LLM LLMConfig `yaml:"llm"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	MaxSlides      int   `yaml:"max_slides"`

	// Artifacts and rendering
	UploadDir string `yaml:"upload_dir"`
	MarpBin   string `yaml:"marp_bin"`
	VerifyPDF bool   `yaml:"verify_pdf"`

	// Deck
	DeckLocale string `yaml:"deck_locale"`

	// Run state
	RunTTL time.Duration `yaml:"run_ttl"`
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	Provider string `yaml:"provider"`

	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`

	GoogleAPIKey string `yaml:"google_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`

	RPM         int           `yaml:"rpm"`
	Burst       int           `yaml:"burst"`
	MaxRetries  int           `yaml:"max_retries"`
	StatsWindow time.Duration `yaml:"stats_window"`
}

func defaults() Config {
	return Config{
		Port:     "8090",
		LogLevel: "info",
		LLM: LLMConfig{
			Provider:       "openai",
			OpenAIModel:    "gpt-4o-2024-08-06",
			GeminiModel:    "gemini-2.5-flash",
			AnthropicModel: "claude-sonnet-4-5-20250929",
			Burst:          1,
			StatsWindow:    time.Hour,
		},
		WorkerCount:    4,
		MaxQueueSize:   16,
		MaxUploadBytes: 104857600, // 100MB
		MaxSlides:      60,
		UploadDir:      "uploads",
		MarpBin:        "marp",
		VerifyPDF:      true,
		DeckLocale:     "ja",
		RunTTL:         1 * time.Hour,
	}
}

// Load builds the configuration: defaults, then CONFIG_FILE (YAML) if set, then
// environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.APIKey = envOr("API_KEY", cfg.APIKey)

	cfg.LLM.Provider = envOr("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.OpenAIAPIKey = envOr("OPENAI_API_KEY", cfg.LLM.OpenAIAPIKey)
	cfg.LLM.OpenAIBaseURL = envOr("OPENAI_BASE_URL", cfg.LLM.OpenAIBaseURL)
	cfg.LLM.OpenAIModel = envOr("OPENAI_MODEL", cfg.LLM.OpenAIModel)
	cfg.LLM.GoogleAPIKey = envOr("GOOGLE_API_KEY", cfg.LLM.GoogleAPIKey)
	cfg.LLM.GeminiModel = envOr("GEMINI_MODEL", cfg.LLM.GeminiModel)
	cfg.LLM.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", cfg.LLM.AnthropicAPIKey)
	cfg.LLM.AnthropicModel = envOr("ANTHROPIC_MODEL", cfg.LLM.AnthropicModel)
	cfg.LLM.RPM = envInt("LLM_RPM", cfg.LLM.RPM)
	cfg.LLM.Burst = envInt("LLM_BURST", cfg.LLM.Burst)
	cfg.LLM.MaxRetries = envInt("LLM_MAX_RETRIES", cfg.LLM.MaxRetries)
	cfg.LLM.StatsWindow = envDuration("LLM_STATS_WINDOW", cfg.LLM.StatsWindow)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.MaxSlides = envInt("MAX_SLIDES", cfg.MaxSlides)
	cfg.UploadDir = envOr("UPLOAD_DIR", cfg.UploadDir)
	cfg.MarpBin = envOr("MARP_BIN", cfg.MarpBin)
	cfg.VerifyPDF = envBool("VERIFY_PDF", cfg.VerifyPDF)
	cfg.DeckLocale = envOr("DECK_LOCALE", cfg.DeckLocale)
	cfg.RunTTL = envDuration("RUN_TTL", cfg.RunTTL)

	d := defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = d.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = d.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.MaxSlides <= 0 {
		cfg.MaxSlides = d.MaxSlides
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = d.RunTTL
	}
	if cfg.LLM.MaxRetries < 0 {
		cfg.LLM.MaxRetries = 0
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider openai")
		}
	case "gemini":
		if c.LLM.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for provider gemini")
		}
	case "anthropic":
		if c.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider anthropic")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want openai, gemini or anthropic)", c.LLM.Provider)
	}
	switch c.DeckLocale {
	case "ja", "en":
	default:
		return fmt.Errorf("unknown DECK_LOCALE %q (want ja or en)", c.DeckLocale)
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	return nil
}

// SlogLevel parses LogLevel, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Model returns the model name for the selected provider.
func (c LLMConfig) Model() string {
	switch c.Provider {
	case "gemini":
		return c.GeminiModel
	case "anthropic":
		return c.AnthropicModel
	}
	return c.OpenAIModel
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
