// Package storage selects the configured persistence backend.
package storage

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/floatwatch/internal/common"
	"github.com/ternarybob/floatwatch/internal/interfaces"
	"github.com/ternarybob/floatwatch/internal/storage/badger"
	"github.com/ternarybob/floatwatch/internal/storage/postgres"
)

// NewArticleStorage creates the article store named by config.Storage.Type.
func NewArticleStorage(ctx context.Context, logger arbor.ILogger, config *common.Config) (interfaces.ArticleStorage, error) {
	switch config.Storage.Type {
	case "", "badger":
		db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
		if err != nil {
			return nil, err
		}
		return badger.NewArticleStorage(db, logger), nil
	case "postgres":
		return postgres.NewArticleStorage(ctx, logger, &config.Storage.Postgres)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Storage.Type)
	}
}
