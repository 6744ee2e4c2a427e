package embedder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/yuanlichao666/llm-ops/internal/log"
)

// RetryPolicy bounds how often a failed provider request is repeated
type RetryPolicy struct {
	Attempts  uint64        // total tries, including the first
	BaseDelay time.Duration // wait before the first retry, doubled after each
	MaxDelay  time.Duration // cap on a single wait
}

// DefaultRetryPolicy is used by the HTTP providers
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  MaxRetries,
		BaseDelay: time.Duration(InitialBackoffMs) * time.Millisecond,
		MaxDelay:  time.Duration(MaxBackoffMs) * time.Millisecond,
	}
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	b := retry.NewExponential(base)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	var retries uint64
	if p.Attempts > 1 {
		retries = p.Attempts - 1
	}
	return retry.WithMaxRetries(retries, b)
}

// APIError is a non-success HTTP response from an embedding API
type APIError struct {
	StatusCode int
	Message    string
	cause      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Temporary reports whether the status is worth another attempt:
// rate limiting, timeouts and server errors. Auth and request errors are final.
func (e *APIError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return e.StatusCode >= http.StatusInternalServerError
}

// isRetryable classifies a failed provider call
func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrVectorCountMismatch):
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	// transport failures and malformed responses
	return true
}

// callWithRetry runs fn under policy. Only errors classified as retryable
// are repeated; a done context ends the loop with ctx.Err().
func callWithRetry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var attempt uint64
	return retry.DoValue(ctx, policy.backoff(), func(ctx context.Context) (T, error) {
		attempt++
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return result, fmt.Errorf("%w: %w", ctxErr, err)
		}
		if !isRetryable(err) {
			return result, err
		}
		if attempt < policy.Attempts {
			log.Warnf("embedding request failed, retrying (attempt %d/%d): %v", attempt, policy.Attempts, err)
		}
		return result, retry.RetryableError(err)
	})
}
