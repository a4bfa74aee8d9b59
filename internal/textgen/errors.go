package textgen

import (
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the model returned unusable content, such as
// an empty completion.
type ErrInvalidResponse struct {
	Err error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid model response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("text provider unavailable: %v", e.Err)
	}
	return "text provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }
