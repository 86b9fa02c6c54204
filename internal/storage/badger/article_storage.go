package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/floatwatch/internal/interfaces"
	"github.com/ternarybob/floatwatch/internal/models"
)

// ArticleStorage implements the ArticleStorage interface for Badger
type ArticleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewArticleStorage creates a new ArticleStorage instance
func NewArticleStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ArticleStorage {
	return &ArticleStorage{
		db:     db,
		logger: logger,
	}
}

// SaveArticle persists an article keyed by ID. The URL is the natural key:
// when an article with the same URL already exists, nothing is written and
// the existing ID is returned.
func (s *ArticleStorage) SaveArticle(ctx context.Context, article *models.Article) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if article.URL == "" {
		return "", fmt.Errorf("article URL is required")
	}

	var existing []models.Article
	if err := s.db.Store().Find(&existing, badgerhold.Where("URL").Eq(article.URL).Limit(1)); err != nil {
		return "", fmt.Errorf("failed to check for existing article: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Debug().Str("url", article.URL).Str("id", existing[0].ID).Msg("Article already stored, skipping")
		return existing[0].ID, nil
	}

	if article.ID == "" {
		article.ID = "art_" + uuid.New().String()
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}

	if err := s.db.Store().Insert(article.ID, article); err != nil {
		return "", fmt.Errorf("failed to save article: %w", err)
	}
	return article.ID, nil
}

func (s *ArticleStorage) GetArticleByID(ctx context.Context, id string) (*models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var article models.Article
	if err := s.db.Store().Get(id, &article); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("article not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

// GetRecentArticles returns a page of articles ordered newest first.
// Pages are 1-based.
func (s *ArticleStorage) GetRecentArticles(ctx context.Context, page, pageSize int) ([]*models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var articles []models.Article
	query := badgerhold.Where("URL").Ne("").
		SortBy("PublishedDate", "PublishedTime").
		Reverse().
		Skip((page - 1) * pageSize).
		Limit(pageSize)
	if err := s.db.Store().Find(&articles, query); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	return toPointers(articles), nil
}

// GetArticlesByTicker returns articles mentioning the symbol, newest first.
func (s *ArticleStorage) GetArticlesByTicker(ctx context.Context, symbol string, limit int) ([]*models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 20
	}

	var articles []models.Article
	query := badgerhold.Where("Tickers").Contains(symbol).
		SortBy("PublishedDate", "PublishedTime").
		Reverse().
		Limit(limit)
	if err := s.db.Store().Find(&articles, query); err != nil {
		return nil, fmt.Errorf("failed to find articles for %s: %w", symbol, err)
	}

	return toPointers(articles), nil
}

func (s *ArticleStorage) CountArticles(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count, err := s.db.Store().Count(&models.Article{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return int(count), nil
}

// UpsertQuote stores the latest market snapshot for a symbol.
func (s *ArticleStorage) UpsertQuote(ctx context.Context, symbol string, quote models.Quote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	quote.Symbol = symbol
	if quote.UpdatedAt.IsZero() {
		quote.UpdatedAt = time.Now().UTC()
	}

	if err := s.db.Store().Upsert(symbol, &quote); err != nil {
		return fmt.Errorf("failed to upsert quote: %w", err)
	}
	return nil
}

func (s *ArticleStorage) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var quote models.Quote
	if err := s.db.Store().Get(symbol, &quote); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("quote not found: %s", symbol)
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &quote, nil
}

// ClearAll removes all stored articles and quotes.
func (s *ArticleStorage) ClearAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.Store().DeleteMatching(&models.Article{}, nil); err != nil {
		return fmt.Errorf("failed to clear articles: %w", err)
	}
	if err := s.db.Store().DeleteMatching(&models.Quote{}, nil); err != nil {
		return fmt.Errorf("failed to clear quotes: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *ArticleStorage) Close() error {
	return s.db.Close()
}

func toPointers(articles []models.Article) []*models.Article {
	result := make([]*models.Article, len(articles))
	for i := range articles {
		result[i] = &articles[i]
	}
	return result
}
