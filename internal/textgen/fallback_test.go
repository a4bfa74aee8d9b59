package textgen

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithFallback_UsesModelText(t *testing.T) {
	mock := NewMockGenerator(MockResponse{Text: "you can do this"})

	got := WithFallback(context.Background(), mock, Request{Prompt: "encourage"}, "canned", time.Second, nil)
	if got != "you can do this" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestWithFallback_ErrorFallsBack(t *testing.T) {
	mock := NewMockGenerator(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
	)

	got := WithFallback(context.Background(), mock, Request{}, "canned", time.Second, nil)
	if got != "canned" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestWithFallback_NilGeneratorFallsBack(t *testing.T) {
	got := WithFallback(context.Background(), nil, Request{}, "canned", time.Second, nil)
	if got != "canned" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestWithFallback_TimeoutFallsBack(t *testing.T) {
	slow := generatorFunc(func(ctx context.Context, _ Request) (*Response, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return &Response{Text: "too late"}, nil
		}
	})

	got := WithFallback(context.Background(), slow, Request{}, "canned", time.Millisecond, nil)
	if got != "canned" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

// generatorFunc adapts a function to the Generator interface for tests.
type generatorFunc func(ctx context.Context, req Request) (*Response, error)

func (f generatorFunc) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

func (f generatorFunc) ModelID() string { return "func" }
