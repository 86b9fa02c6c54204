package interfaces

import (
	"context"

	"github.com/ternarybob/floatwatch/internal/models"
)

// ArticleStorage - persistence gateway for articles and market snapshots.
// SaveArticle is idempotent on the article URL: saving an article whose URL
// already exists creates no new row and returns the existing identity.
type ArticleStorage interface {
	SaveArticle(ctx context.Context, article *models.Article) (string, error)
	GetArticleByID(ctx context.Context, id string) (*models.Article, error)
	GetRecentArticles(ctx context.Context, page, pageSize int) ([]*models.Article, error)
	GetArticlesByTicker(ctx context.Context, symbol string, limit int) ([]*models.Article, error)
	CountArticles(ctx context.Context) (int, error)

	// Quote snapshots, upserted by ticker symbol.
	UpsertQuote(ctx context.Context, symbol string, quote models.Quote) error
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	ClearAll(ctx context.Context) error
	Close() error
}
