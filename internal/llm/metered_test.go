package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type flakyClient struct {
	calls int
	errs  []error
	text  string
}

func (f *flakyClient) next() error {
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *flakyClient) StructuredComplete(ctx context.Context, p Prompt, s *Schema, out any) error {
	return f.next()
}

func (f *flakyClient) FreeTextComplete(ctx context.Context, p Prompt) (string, error) {
	if err := f.next(); err != nil {
		return "", err
	}
	return f.text, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMetered_SingleAttemptByDefault(t *testing.T) {
	inner := &flakyClient{errs: []error{&RetryableError{StatusCode: 429}}}
	m := NewMetered(inner, MeterConfig{}, discardLogger())

	_, err := m.FreeTextComplete(context.Background(), Prompt{Text: "hi"})
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error to surface, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call without retries, got %d", inner.calls)
	}
	if snap := m.Stats.Snapshot(); snap.Count != 1 || snap.Failures != 1 {
		t.Errorf("expected one failed sample, got %+v", snap)
	}
}

func TestMetered_RetriesRetryableWhenEnabled(t *testing.T) {
	inner := &flakyClient{
		errs: []error{&RetryableError{StatusCode: 503}, &RetryableError{StatusCode: 429}},
		text: "ok",
	}
	m := NewMetered(inner, MeterConfig{MaxRetries: 3}, discardLogger())
	m.backoff = func(int) time.Duration { return time.Millisecond }

	text, err := m.FreeTextComplete(context.Background(), Prompt{Text: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok" {
		t.Errorf("expected %q, got %q", "ok", text)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
}

func TestMetered_DoesNotRetryUnusable(t *testing.T) {
	inner := &flakyClient{errs: []error{ErrUnusable}}
	m := NewMetered(inner, MeterConfig{MaxRetries: 3}, discardLogger())
	m.backoff = func(int) time.Duration { return time.Millisecond }

	err := m.StructuredComplete(context.Background(), Prompt{Text: "hi"}, headTestSchema, &headOut{})
	if !errors.Is(err, ErrUnusable) {
		t.Fatalf("expected ErrUnusable, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls)
	}
}

func TestMetered_RetriesExhausted(t *testing.T) {
	inner := &flakyClient{errs: []error{
		&RetryableError{StatusCode: 500},
		&RetryableError{StatusCode: 500},
		&RetryableError{StatusCode: 500},
	}}
	m := NewMetered(inner, MeterConfig{MaxRetries: 2}, discardLogger())
	m.backoff = func(int) time.Duration { return time.Millisecond }

	_, err := m.FreeTextComplete(context.Background(), Prompt{Text: "hi"})
	if !IsRetryable(err) {
		t.Fatalf("expected last retryable error, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
}
