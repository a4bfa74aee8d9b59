package textgen

import (
	"context"
	"errors"
	"testing"
	"time"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := NewMockGenerator(
		MockResponse{Text: "keep going"},
	)
	g := WithRetry(mock, retryConfig())

	resp, err := g.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "keep going" {
		t.Fatalf("unexpected text: %s", resp.Text)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockGenerator(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Text: "recovered"},
	)
	g := WithRetry(mock, retryConfig())

	resp, err := g.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "recovered" {
		t.Fatalf("unexpected text: %s", resp.Text)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	mock := NewMockGenerator(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
	)
	g := WithRetry(mock, retryConfig())

	_, err := g.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	mock := NewMockGenerator(
		MockResponse{Err: &ErrInvalidResponse{Err: errors.New("empty")}},
		MockResponse{Err: &ErrInvalidResponse{Err: errors.New("empty")}},
		MockResponse{Text: "unreached"},
	)
	g := WithRetry(mock, retryConfig())

	_, err := g.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	// Should have retried once (2 calls total), then stopped.
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	mock := NewMockGenerator(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Text: "unreached"},
	)
	g := WithRetry(mock, retryConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately.

	_, err := g.Generate(ctx, Request{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRetry_RateLimitRespectsRetryAfter(t *testing.T) {
	mock := NewMockGenerator(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 1 * time.Millisecond, Err: errors.New("429")}},
		MockResponse{Text: "after limit"},
	)
	g := WithRetry(mock, retryConfig())

	resp, err := g.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "after limit" {
		t.Fatalf("unexpected text: %s", resp.Text)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	mock := NewMockGenerator()
	g := WithRetry(mock, retryConfig())
	if g.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", g.ModelID())
	}
}
