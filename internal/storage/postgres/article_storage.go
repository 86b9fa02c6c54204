// Package postgres implements article storage on PostgreSQL. It is selected
// over the embedded Badger store when several processes need to share one
// article database.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/floatwatch/internal/common"
	"github.com/ternarybob/floatwatch/internal/interfaces"
	"github.com/ternarybob/floatwatch/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id             TEXT PRIMARY KEY,
	url            TEXT NOT NULL UNIQUE,
	source         TEXT NOT NULL,
	title          TEXT NOT NULL,
	summary        TEXT NOT NULL DEFAULT '',
	published_date TIMESTAMPTZ NOT NULL,
	published_time TIMESTAMPTZ NOT NULL,
	tickers        TEXT[] NOT NULL DEFAULT '{}',
	float_data     JSONB NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles (published_date DESC, published_time DESC);
CREATE INDEX IF NOT EXISTS idx_articles_tickers ON articles USING GIN (tickers);

CREATE TABLE IF NOT EXISTS quotes (
	symbol     TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	float_raw  DOUBLE PRECISION,
	float      TEXT NOT NULL DEFAULT '',
	price      DOUBLE PRECISION,
	market_cap TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// ArticleStorage implements the ArticleStorage interface on a pgx pool.
type ArticleStorage struct {
	pool   *pgxpool.Pool
	logger arbor.ILogger
}

// NewArticleStorage connects to PostgreSQL and ensures the schema exists.
func NewArticleStorage(ctx context.Context, logger arbor.ILogger, config *common.PostgresConfig) (interfaces.ArticleStorage, error) {
	connStr := BuildConnString(config)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if config.MaxConns > 0 {
		poolCfg.MaxConns = int32(config.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Debug().Str("host", config.Host).Str("database", config.Database).Msg("Postgres storage initialized")

	return &ArticleStorage{pool: pool, logger: logger}, nil
}

// SaveArticle inserts the article unless its URL is already stored. The
// conflict path costs a second query to resolve the existing ID.
func (s *ArticleStorage) SaveArticle(ctx context.Context, article *models.Article) (string, error) {
	if article.URL == "" {
		return "", fmt.Errorf("article URL is required")
	}

	if article.ID == "" {
		article.ID = "art_" + uuid.New().String()
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}

	floatData, err := json.Marshal(article.FloatData)
	if err != nil {
		return "", fmt.Errorf("encode float data: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO articles (id, url, source, title, summary, published_date, published_time, tickers, float_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (url) DO NOTHING`,
		article.ID, article.URL, article.Source, article.Title, article.Summary,
		article.PublishedDate, article.PublishedTime, article.Tickers, floatData, article.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert article: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return article.ID, nil
	}

	var existingID string
	if err := s.pool.QueryRow(ctx, `SELECT id FROM articles WHERE url = $1`, article.URL).Scan(&existingID); err != nil {
		return "", fmt.Errorf("resolve existing article: %w", err)
	}
	s.logger.Debug().Str("url", article.URL).Str("id", existingID).Msg("Article already stored, skipping")
	return existingID, nil
}

const articleColumns = `id, url, source, title, summary, published_date, published_time, tickers, float_data, created_at`

func (s *ArticleStorage) GetArticleByID(ctx context.Context, id string) (*models.Article, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	article, err := scanArticle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("article not found: %s", id)
	}
	return article, err
}

func (s *ArticleStorage) GetRecentArticles(ctx context.Context, page, pageSize int) ([]*models.Article, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+articleColumns+` FROM articles
		ORDER BY published_date DESC, published_time DESC
		LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (s *ArticleStorage) GetArticlesByTicker(ctx context.Context, symbol string, limit int) ([]*models.Article, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+articleColumns+` FROM articles
		WHERE $1 = ANY(tickers)
		ORDER BY published_date DESC, published_time DESC
		LIMIT $2`,
		symbol, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find articles for %s: %w", symbol, err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (s *ArticleStorage) CountArticles(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

func (s *ArticleStorage) UpsertQuote(ctx context.Context, symbol string, quote models.Quote) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	updatedAt := quote.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO quotes (symbol, name, float_raw, float, price, market_cap, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			float_raw = EXCLUDED.float_raw,
			float = EXCLUDED.float,
			price = EXCLUDED.price,
			market_cap = EXCLUDED.market_cap,
			updated_at = EXCLUDED.updated_at`,
		symbol, quote.Name, quote.FloatRaw, quote.Float, quote.Price, quote.MarketCap, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert quote: %w", err)
	}
	return nil
}

func (s *ArticleStorage) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var quote models.Quote
	err := s.pool.QueryRow(ctx, `
		SELECT symbol, name, float_raw, float, price, market_cap, updated_at
		FROM quotes WHERE symbol = $1`, symbol,
	).Scan(&quote.Symbol, &quote.Name, &quote.FloatRaw, &quote.Float, &quote.Price, &quote.MarketCap, &quote.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("quote not found: %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	return &quote, nil
}

func (s *ArticleStorage) ClearAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE articles, quotes`); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	return nil
}

func (s *ArticleStorage) Close() error {
	s.pool.Close()
	return nil
}

func scanArticle(row pgx.Row) (*models.Article, error) {
	var article models.Article
	var floatData []byte
	err := row.Scan(
		&article.ID, &article.URL, &article.Source, &article.Title, &article.Summary,
		&article.PublishedDate, &article.PublishedTime, &article.Tickers, &floatData, &article.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	article.FloatData = make(map[string]models.Quote)
	if len(floatData) > 0 {
		if err := json.Unmarshal(floatData, &article.FloatData); err != nil {
			return nil, fmt.Errorf("decode float data: %w", err)
		}
	}
	return &article, nil
}

func scanArticles(rows pgx.Rows) ([]*models.Article, error) {
	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, nil
}
