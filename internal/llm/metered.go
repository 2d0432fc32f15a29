package llm

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Metered wraps a Client with rate limiting, latency stats and optional retries.
// With MaxRetries == 0 every call is a single attempt.
type Metered struct {
	inner      Client
	Stats      *Stats
	limiter    *rate.Limiter
	maxRetries int
	model      string
	log        *slog.Logger

	backoff func(attempt int) time.Duration
}

// MeterConfig controls Metered.
type MeterConfig struct {
	Model       string
	RPM         int // 0 disables rate limiting
	Burst       int
	MaxRetries  int
	StatsWindow time.Duration
}

func NewMetered(inner Client, cfg MeterConfig, log *slog.Logger) *Metered {
	limit := rate.Inf
	if cfg.RPM > 0 {
		limit = rate.Limit(float64(cfg.RPM) / 60.0)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Metered{
		inner:      inner,
		Stats:      NewStats(cfg.StatsWindow),
		limiter:    rate.NewLimiter(limit, burst),
		maxRetries: cfg.MaxRetries,
		model:      cfg.Model,
		log:        log,
		backoff:    Backoff,
	}
}

// Model returns the wrapped provider's model name.
func (m *Metered) Model() string { return m.model }

// Limits describes how calls are throttled and retried.
type Limits struct {
	RPM        float64 `json:"rpm"` // 0 means unlimited
	Burst      int     `json:"burst"`
	MaxRetries int     `json:"max_retries"`
}

func (m *Metered) Limits() Limits {
	l := Limits{Burst: m.limiter.Burst(), MaxRetries: m.maxRetries}
	if lim := m.limiter.Limit(); lim != rate.Inf {
		l.RPM = float64(lim) * 60
	}
	return l
}

func (m *Metered) StructuredComplete(ctx context.Context, p Prompt, s *Schema, out any) error {
	return m.do(ctx, p, "structured", func() error {
		return m.inner.StructuredComplete(ctx, p, s, out)
	})
}

func (m *Metered) FreeTextComplete(ctx context.Context, p Prompt) (string, error) {
	var text string
	err := m.do(ctx, p, "free_text", func() error {
		var err error
		text, err = m.inner.FreeTextComplete(ctx, p)
		return err
	})
	return text, err
}

func (m *Metered) do(ctx context.Context, p Prompt, kind string, call func() error) error {
	tokens := EstimateTokens(p.Text)
	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		lastErr = call()
		m.Stats.Record(time.Since(start).Milliseconds(), tokens, lastErr != nil)

		if lastErr == nil || !IsRetryable(lastErr) || attempt == m.maxRetries {
			break
		}
		wait := m.backoff(attempt)
		m.log.Warn("retryable llm error", "kind", kind, "attempt", attempt, "wait", wait, "error", lastErr)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
