package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/floatwatch/internal/common"
	"github.com/ternarybob/floatwatch/internal/interfaces"
	"github.com/ternarybob/floatwatch/internal/models"
	"github.com/ternarybob/floatwatch/internal/quotes"
	"github.com/ternarybob/floatwatch/internal/status"
)

type fakeAdapter struct {
	name     string
	articles []*models.Article
	err      error
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Fetch(ctx context.Context, maxPages int) ([]*models.Article, error) {
	return a.articles, a.err
}

type fakeQuoteProvider struct {
	quotes map[string]*models.Quote
}

func (p *fakeQuoteProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if q, ok := p.quotes[symbol]; ok {
		return q, nil
	}
	return nil, quotes.ErrUnavailable
}

type memoryStorage struct {
	mu       sync.Mutex
	articles map[string]*models.Article // keyed by URL
	quotes   map[string]models.Quote
	saveErr  error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		articles: make(map[string]*models.Article),
		quotes:   make(map[string]models.Quote),
	}
}

func (m *memoryStorage) SaveArticle(ctx context.Context, article *models.Article) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	if existing, ok := m.articles[article.URL]; ok {
		return existing.ID, nil
	}
	article.ID = fmt.Sprintf("art_%d", len(m.articles)+1)
	m.articles[article.URL] = article
	return article.ID, nil
}

func (m *memoryStorage) GetArticleByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memoryStorage) GetRecentArticles(ctx context.Context, page, pageSize int) ([]*models.Article, error) {
	return nil, nil
}

func (m *memoryStorage) GetArticlesByTicker(ctx context.Context, symbol string, limit int) ([]*models.Article, error) {
	return nil, nil
}

func (m *memoryStorage) CountArticles(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.articles), nil
}

func (m *memoryStorage) UpsertQuote(ctx context.Context, symbol string, quote models.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[symbol] = quote
	return nil
}

func (m *memoryStorage) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.quotes[symbol]; ok {
		return &q, nil
	}
	return nil, errors.New("not found")
}

func (m *memoryStorage) ClearAll(ctx context.Context) error { return nil }
func (m *memoryStorage) Close() error                       { return nil }

func newsArticle(url string, symbols ...string) *models.Article {
	a := models.NewArticle("Release "+url, "summary", url, time.Now(), symbols)
	a.Source = "test"
	return a
}

func floatQuote(symbol string, shares float64) *models.Quote {
	return &models.Quote{
		Symbol:    symbol,
		Name:      symbol + " Corp",
		FloatRaw:  &shares,
		Float:     models.FormatShares(shares),
		UpdatedAt: time.Now().UTC(),
	}
}

func newTestService(adapters []*fakeAdapter, provider *fakeQuoteProvider, store *memoryStorage) (*Service, *status.Service) {
	logger := common.GetLogger()
	enricher := quotes.NewEnricher(provider, logger, quotes.WithRetries(1, time.Millisecond))

	var sourceAdapters []interfaces.SourceAdapter
	for _, a := range adapters {
		sourceAdapters = append(sourceAdapters, a)
	}

	sink := status.NewService()
	svc := NewService(sourceAdapters, enricher, store, sink, logger, &common.MonitorConfig{
		Enabled:  true,
		Interval: common.Duration(time.Minute),
		MaxPages: 1,
	})
	return svc, sink
}

func TestRunCycle(t *testing.T) {
	adapters := []*fakeAdapter{
		{
			name: "alpha",
			articles: []*models.Article{
				newsArticle("https://example.com/a", "AAA"),
				newsArticle("https://example.com/b", "BBB"),
			},
		},
		{
			name: "beta",
			err:  errors.New("listing unreachable"),
		},
	}
	// Only AAA resolves; the BBB article must be dropped.
	provider := &fakeQuoteProvider{quotes: map[string]*models.Quote{
		"AAA": floatQuote("AAA", 4_500_000),
	}}
	store := newMemoryStorage()

	svc, sink := newTestService(adapters, provider, store)
	require.NoError(t, svc.RunCycle(context.Background()))

	count, err := store.CountArticles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	saved := store.articles["https://example.com/a"]
	require.NotNil(t, saved)
	quote, ok := saved.FloatData["AAA"]
	require.True(t, ok)
	assert.Equal(t, "4.50M", quote.Float)

	stored, err := store.GetQuote(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, "4.50M", stored.Float)

	st := sink.Snapshot()
	assert.Equal(t, 1, st.CycleCount)
	assert.Equal(t, 1, st.ArticlesSaved)
	assert.Equal(t, 2, st.ArticlesTotal)
	assert.Empty(t, st.LastError)
}

func TestRunCycleSourceSuppliedQuotes(t *testing.T) {
	// The screener source pre-attaches quotes; those survive even when the
	// market data provider cannot resolve the symbol.
	article := newsArticle("https://example.com/scrn", "SCRN")
	article.FloatData["SCRN"] = *floatQuote("SCRN", 2_000_000)

	adapters := []*fakeAdapter{{name: "screener", articles: []*models.Article{article}}}
	provider := &fakeQuoteProvider{quotes: map[string]*models.Quote{}}
	store := newMemoryStorage()

	svc, _ := newTestService(adapters, provider, store)
	require.NoError(t, svc.RunCycle(context.Background()))

	saved := store.articles["https://example.com/scrn"]
	require.NotNil(t, saved)
	assert.Equal(t, "2.00M", saved.FloatData["SCRN"].Float)
}

func TestRunCycleDuplicateURLAcrossSources(t *testing.T) {
	adapters := []*fakeAdapter{
		{name: "one", articles: []*models.Article{newsArticle("https://example.com/dup", "AAA")}},
		{name: "two", articles: []*models.Article{newsArticle("https://example.com/dup", "AAA")}},
	}
	provider := &fakeQuoteProvider{quotes: map[string]*models.Quote{
		"AAA": floatQuote("AAA", 1_000_000),
	}}
	store := newMemoryStorage()

	svc, sink := newTestService(adapters, provider, store)
	require.NoError(t, svc.RunCycle(context.Background()))

	count, err := store.CountArticles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count, "second save resolves to the existing row")

	// Both saves succeed from the monitor's perspective.
	assert.Equal(t, 2, sink.Snapshot().ArticlesSaved)
}

func TestRunCycleCancelled(t *testing.T) {
	adapters := []*fakeAdapter{{name: "one", articles: []*models.Article{newsArticle("https://example.com/a", "AAA")}}}
	provider := &fakeQuoteProvider{quotes: map[string]*models.Quote{}}
	store := newMemoryStorage()

	svc, _ := newTestService(adapters, provider, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, svc.RunCycle(ctx))
}

func TestStartRequiresAdapters(t *testing.T) {
	svc, _ := newTestService(nil, &fakeQuoteProvider{}, newMemoryStorage())
	assert.Error(t, svc.Start(context.Background()))
}

func TestTickerUnion(t *testing.T) {
	articles := []*models.Article{
		newsArticle("https://example.com/1", "AAA", "BBB"),
		newsArticle("https://example.com/2", "BBB", "CCC"),
	}
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, tickerUnion(articles))
}
