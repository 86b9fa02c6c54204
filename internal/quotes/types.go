// Package quotes provides the market-data client and batch enricher used to
// attach float, price, and market-cap snapshots to extracted tickers.
package quotes

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable indicates the provider has no usable share-count data for a
// symbol. Enrichment treats it as a silent omission rather than a failure.
var ErrUnavailable = errors.New("quote data unavailable")

// APIError represents an error response from the market data API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market data API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("market data rate limit exceeded, retry after %v", e.RetryAfter)
}
