package sources

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryPolicy defines listing-fetch retry behavior with fixed backoff.
// Exhausting retries skips the page, it never aborts the whole fetch.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// NewRetryPolicy creates the default retry policy
func NewRetryPolicy(maxAttempts int, backoff time.Duration) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &RetryPolicy{MaxAttempts: maxAttempts, Backoff: backoff}
}

// Execute wraps a fetch attempt with the retry loop. fn returns the HTTP
// status code (0 if the request never completed) and an error.
func (p *RetryPolicy) Execute(ctx context.Context, logger arbor.ILogger, fn func() (int, error)) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		statusCode, err := fn()
		if err == nil && statusCode >= 200 && statusCode < 300 {
			return nil
		}
		lastErr = err
		if err == nil {
			lastErr = &HTTPStatusError{StatusCode: statusCode}
		}

		if !shouldRetry(statusCode, err) {
			logger.Debug().
				Int("attempt", attempt).
				Int("status_code", statusCode).
				Err(lastErr).
				Msg("Non-retryable error, failing immediately")
			return lastErr
		}

		if attempt < p.MaxAttempts {
			logger.Debug().
				Int("attempt", attempt).
				Int("status_code", statusCode).
				Err(lastErr).
				Dur("backoff", p.Backoff).
				Msg("Retrying after backoff")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Backoff):
			}
		}
	}

	logger.Warn().
		Int("max_attempts", p.MaxAttempts).
		Err(lastErr).
		Msg("All retry attempts exhausted")

	return lastErr
}

// HTTPStatusError reports a non-2xx response.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}

func retryableStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429:
		return true
	}
	return statusCode >= 500
}

func shouldRetry(statusCode int, err error) bool {
	if statusCode > 0 {
		return retryableStatus(statusCode)
	}
	return isRetryableError(err)
}

// isRetryableError checks for timeouts and connection errors
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
