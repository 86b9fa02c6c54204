// Package monitor runs the background ingestion loop: fetch all enabled
// sources, enrich extracted tickers with market data, and persist articles
// that carry usable float figures.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/floatwatch/internal/common"
	"github.com/ternarybob/floatwatch/internal/interfaces"
	"github.com/ternarybob/floatwatch/internal/models"
	"github.com/ternarybob/floatwatch/internal/quotes"
)

// Service orchestrates ingestion cycles on a fixed interval.
type Service struct {
	adapters []interfaces.SourceAdapter
	enricher *quotes.Enricher
	storage  interfaces.ArticleStorage
	status   interfaces.StatusSink
	logger   arbor.ILogger
	config   *common.MonitorConfig

	cron *cron.Cron

	// cycleMu serializes cycles: a scheduled run that fires while the
	// previous cycle is still going is skipped, not queued.
	cycleMu sync.Mutex
}

// NewService creates the monitor over its collaborators.
func NewService(
	adapters []interfaces.SourceAdapter,
	enricher *quotes.Enricher,
	storage interfaces.ArticleStorage,
	status interfaces.StatusSink,
	logger arbor.ILogger,
	config *common.MonitorConfig,
) *Service {
	return &Service{
		adapters: adapters,
		enricher: enricher,
		storage:  storage,
		status:   status,
		logger:   logger,
		config:   config,
	}
}

// Start runs an immediate cycle, then schedules recurring cycles on the
// configured interval. Stop only takes effect between cycles.
func (s *Service) Start(ctx context.Context) error {
	if len(s.adapters) == 0 {
		return fmt.Errorf("no source adapters enabled")
	}

	s.cron = cron.New()
	schedule := fmt.Sprintf("@every %s", s.config.Interval)
	if _, err := s.cron.AddFunc(schedule, func() {
		s.runScheduled(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule ingestion: %w", err)
	}

	common.SafeGo(s.logger, "initial ingestion cycle", func() {
		s.runScheduled(ctx)
	})

	s.cron.Start()
	s.logger.Info().
		Str("interval", s.config.Interval.String()).
		Int("sources", len(s.adapters)).
		Msg("Ingestion monitor started")
	return nil
}

// Stop halts scheduling and waits for an in-flight cycle to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
	}
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	s.logger.Info().Msg("Ingestion monitor stopped")
}

func (s *Service) runScheduled(ctx context.Context) {
	if !s.cycleMu.TryLock() {
		s.logger.Warn().Msg("Previous ingestion cycle still running, skipping this tick")
		return
	}
	defer s.cycleMu.Unlock()
	defer common.RecoverPanic(s.logger, "ingestion cycle")

	if err := s.RunCycle(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.status.SetError(err)
		s.logger.Error().Err(err).Msg("Ingestion cycle failed")
	}
}

// RunCycle executes one full ingestion pass. Exposed for single-shot runs.
func (s *Service) RunCycle(ctx context.Context) error {
	started := time.Now()
	s.logger.Info().Msg("Ingestion cycle starting")
	s.status.SetMessage("Fetching news sources", 5)

	articles := s.fetchAll(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	total := len(articles)

	symbols := tickerUnion(articles)
	s.logger.Info().
		Int("articles", total).
		Int("symbols", len(symbols)).
		Msg("Source fetch complete")

	s.status.SetMessage("Fetching market data", 50)
	resolved, err := s.enricher.GetBatch(ctx, symbols)
	if err != nil {
		return fmt.Errorf("quote enrichment aborted: %w", err)
	}

	// A source may supply its own snapshot (the screener does); those fill
	// in for symbols the provider could not resolve.
	for _, article := range articles {
		for symbol, quote := range article.FloatData {
			if _, ok := resolved[symbol]; !ok && quote.FloatRaw != nil {
				resolved[symbol] = quote
			}
		}
	}

	s.status.SetMessage("Saving articles", 75)
	saved := 0
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return err
		}

		article.AttachQuotes(resolved)
		if !article.HasFloatData() {
			s.logger.Debug().Str("url", article.URL).Msg("No float data resolved, dropping article")
			continue
		}

		if _, err := s.storage.SaveArticle(ctx, article); err != nil {
			s.logger.Warn().Err(err).Str("url", article.URL).Msg("Article save failed, skipping")
			continue
		}
		saved++
	}

	for symbol, quote := range resolved {
		if err := s.storage.UpsertQuote(ctx, symbol, quote); err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote upsert failed")
		}
	}

	s.status.MarkCycleComplete(saved, total)
	s.logger.Info().
		Int("saved", saved).
		Int("total", total).
		Dur("duration", time.Since(started)).
		Msg("Ingestion cycle complete")
	return nil
}

// fetchAll runs every adapter concurrently. One failing source never blocks
// the others; its error is logged and its articles are simply absent.
func (s *Service) fetchAll(ctx context.Context) []*models.Article {
	var mu sync.Mutex
	var articles []*models.Article

	g, gctx := errgroup.WithContext(ctx)
	for _, adapter := range s.adapters {
		adapter := adapter
		g.Go(func() error {
			fetched, err := adapter.Fetch(gctx, s.config.MaxPages)
			if err != nil && gctx.Err() == nil {
				s.logger.Warn().Err(err).Str("source", adapter.Name()).Msg("Source fetch failed")
			}
			if len(fetched) == 0 {
				return nil
			}
			mu.Lock()
			articles = append(articles, keepWithTickers(fetched)...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return articles
}

func keepWithTickers(articles []*models.Article) []*models.Article {
	kept := articles[:0]
	for _, a := range articles {
		if a.HasTickers() {
			kept = append(kept, a)
		}
	}
	return kept
}

// tickerUnion collects the distinct symbols across all articles, first-seen
// order preserved.
func tickerUnion(articles []*models.Article) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, article := range articles {
		for _, symbol := range article.Tickers {
			if !seen[symbol] {
				seen[symbol] = true
				symbols = append(symbols, symbol)
			}
		}
	}
	return symbols
}
