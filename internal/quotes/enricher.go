package quotes

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/floatwatch/internal/interfaces"
	"github.com/ternarybob/floatwatch/internal/models"
)

const (
	defaultWorkers    = 5
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// Enricher fetches quotes for a batch of symbols concurrently. Symbols the
// provider cannot resolve are omitted from the result, never fabricated.
type Enricher struct {
	provider   interfaces.QuoteProvider
	logger     arbor.ILogger
	workers    int
	maxRetries int
	retryDelay time.Duration
}

// EnricherOption configures the Enricher.
type EnricherOption func(*Enricher)

// WithWorkers sets the concurrent fetch limit.
func WithWorkers(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithRetries sets the per-symbol retry count and delay.
func WithRetries(attempts int, delay time.Duration) EnricherOption {
	return func(e *Enricher) {
		if attempts > 0 {
			e.maxRetries = attempts
		}
		if delay > 0 {
			e.retryDelay = delay
		}
	}
}

// NewEnricher creates an Enricher over the given provider.
func NewEnricher(provider interfaces.QuoteProvider, logger arbor.ILogger, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		provider:   provider,
		logger:     logger,
		workers:    defaultWorkers,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetBatch resolves quotes for the given symbols. Each symbol is fetched at
// most once regardless of duplicates in the input. The returned map contains
// only symbols that resolved; per-symbol failures are logged and dropped.
// The error is non-nil only when the context is cancelled.
func (e *Enricher) GetBatch(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	unique := dedupe(symbols)
	if len(unique) == 0 {
		return map[string]models.Quote{}, nil
	}

	results := make(map[string]models.Quote, len(unique))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, symbol := range unique {
		symbol := symbol
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			quote, err := e.fetchWithRetry(gctx, symbol)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				// No-data is a filtering signal, not a failure.
				if errors.Is(err, ErrUnavailable) {
					e.logger.Debug().Str("symbol", symbol).Msg("No quote data, omitting symbol")
				} else {
					e.logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed, omitting symbol")
				}
				return nil
			}
			mu.Lock()
			results[symbol] = *quote
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	e.logger.Info().
		Int("requested", len(unique)).
		Int("resolved", len(results)).
		Msg("Quote batch complete")
	return results, nil
}

func (e *Enricher) fetchWithRetry(ctx context.Context, symbol string) (*models.Quote, error) {
	var lastErr error

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		quote, err := e.provider.GetQuote(ctx, symbol)
		if err == nil {
			return quote, nil
		}
		lastErr = err

		// Unavailable is definitive, retrying cannot produce data.
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}

		if attempt < e.maxRetries {
			e.logger.Debug().
				Err(err).
				Str("symbol", symbol).
				Int("attempt", attempt).
				Msg("Quote fetch retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.retryDelay):
			}
		}
	}

	return nil, lastErr
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
