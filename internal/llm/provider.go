package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/deckforge/internal/config"
)

// NewFromConfig builds the configured provider wrapped in Metered.
func NewFromConfig(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (*Metered, error) {
	var inner Client
	switch cfg.Provider {
	case "openai":
		c, err := NewOpenAI(ctx, cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		inner = c
	case "gemini":
		c, err := NewGemini(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		inner = c
	case "anthropic":
		inner = NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	return NewMetered(inner, MeterConfig{
		Model:       cfg.Model(),
		RPM:         cfg.RPM,
		Burst:       cfg.Burst,
		MaxRetries:  cfg.MaxRetries,
		StatsWindow: cfg.StatsWindow,
	}, log.With("provider", cfg.Provider)), nil
}
