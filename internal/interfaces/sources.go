package interfaces

import (
	"context"

	"github.com/ternarybob/floatwatch/internal/models"
)

// SourceAdapter fetches paginated news listings from one wire service and
// normalizes entries into Article records. Fetch fails soft: errors for one
// page or item are logged and skipped, and whatever was collected is
// returned.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, maxPages int) ([]*models.Article, error)
}

// QuoteProvider resolves a single ticker symbol to a market snapshot.
// A symbol with no usable float data yields quotes.ErrUnavailable from the
// implementation, not a zero-valued quote.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// StatusSink records ingestion progress for external observers. All methods
// are safe for concurrent use.
type StatusSink interface {
	SetMessage(message string, progress int)
	SetError(err error)
	MarkCycleComplete(saved, total int)
	Snapshot() models.FetchStatus
}
