package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/floatwatch/internal/common"
	"github.com/ternarybob/floatwatch/internal/interfaces"
	"github.com/ternarybob/floatwatch/internal/models"
)

func newTestStorage(t *testing.T) interfaces.ArticleStorage {
	t.Helper()

	logger := common.GetLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{
		Path: t.TempDir() + "/store",
	})
	require.NoError(t, err)

	storage := NewArticleStorage(db, logger)
	t.Cleanup(func() { storage.Close() })
	return storage
}

func testArticle(url string, published time.Time, symbols ...string) *models.Article {
	return models.NewArticle("Test Release", "Summary text", url, published, symbols)
}

func TestSaveArticleIdempotentOnURL(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	article := testArticle("https://example.com/release-1", time.Now(), "ABCD")
	id, err := storage.SaveArticle(ctx, article)
	require.NoError(t, err)
	assert.Contains(t, id, "art_")

	// Same URL again, different object.
	duplicate := testArticle("https://example.com/release-1", time.Now(), "ABCD")
	dupID, err := storage.SaveArticle(ctx, duplicate)
	require.NoError(t, err)
	assert.Equal(t, id, dupID, "duplicate URL must return the original ID")

	count, err := storage.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSaveArticleRequiresURL(t *testing.T) {
	storage := newTestStorage(t)

	article := testArticle("", time.Now(), "ABCD")
	_, err := storage.SaveArticle(context.Background(), article)
	assert.Error(t, err)
}

func TestGetArticleByID(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	article := testArticle("https://example.com/release-2", time.Now(), "WXYZ")
	id, err := storage.SaveArticle(ctx, article)
	require.NoError(t, err)

	got, err := storage.GetArticleByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/release-2", got.URL)
	assert.Equal(t, []string{"WXYZ"}, got.Tickers)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = storage.GetArticleByID(ctx, "art_missing")
	assert.Error(t, err)
}

func TestGetRecentArticlesPagination(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		article := testArticle(
			fmt.Sprintf("https://example.com/release-%d", i),
			base.Add(time.Duration(i)*time.Hour),
			"ABCD",
		)
		_, err := storage.SaveArticle(ctx, article)
		require.NoError(t, err)
	}

	page1, err := storage.GetRecentArticles(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "https://example.com/release-4", page1[0].URL, "newest first")
	assert.Equal(t, "https://example.com/release-3", page1[1].URL)

	page3, err := storage.GetRecentArticles(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "https://example.com/release-0", page3[0].URL)
}

func TestGetArticlesByTicker(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := storage.SaveArticle(ctx, testArticle("https://example.com/a", now, "AAA", "BBB"))
	require.NoError(t, err)
	_, err = storage.SaveArticle(ctx, testArticle("https://example.com/b", now.Add(time.Hour), "BBB"))
	require.NoError(t, err)
	_, err = storage.SaveArticle(ctx, testArticle("https://example.com/c", now, "CCC"))
	require.NoError(t, err)

	matches, err := storage.GetArticlesByTicker(ctx, "BBB", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "https://example.com/b", matches[0].URL, "newest first")

	none, err := storage.GetArticlesByTicker(ctx, "ZZZ", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQuoteUpsert(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	shares := 4_520_000.0
	quote := models.Quote{
		Name:     "LowFloat Inc",
		FloatRaw: &shares,
		Float:    models.FormatShares(shares),
	}
	require.NoError(t, storage.UpsertQuote(ctx, "LOWF", quote))

	got, err := storage.GetQuote(ctx, "LOWF")
	require.NoError(t, err)
	assert.Equal(t, "LOWF", got.Symbol)
	assert.Equal(t, "4.52M", got.Float)
	assert.False(t, got.UpdatedAt.IsZero())

	// Upsert replaces the prior snapshot.
	updated := 5_000_000.0
	quote.FloatRaw = &updated
	quote.Float = models.FormatShares(updated)
	require.NoError(t, storage.UpsertQuote(ctx, "LOWF", quote))

	got, err = storage.GetQuote(ctx, "LOWF")
	require.NoError(t, err)
	assert.Equal(t, "5.00M", got.Float)

	_, err = storage.GetQuote(ctx, "NOPE")
	assert.Error(t, err)
}

func TestClearAll(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.SaveArticle(ctx, testArticle("https://example.com/x", time.Now(), "AAA"))
	require.NoError(t, err)
	require.NoError(t, storage.UpsertQuote(ctx, "AAA", models.Quote{Float: "1.00M"}))

	require.NoError(t, storage.ClearAll(ctx))

	count, err := storage.CountArticles(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = storage.GetQuote(ctx, "AAA")
	assert.Error(t, err)
}

func TestSaveArticleCancelledContext(t *testing.T) {
	storage := newTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.SaveArticle(ctx, testArticle("https://example.com/y", time.Now(), "AAA"))
	assert.ErrorIs(t, err, context.Canceled)
}
