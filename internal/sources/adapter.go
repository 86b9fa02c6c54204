package sources

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/floatwatch/internal/common"
	"github.com/ternarybob/floatwatch/internal/interfaces"
	"github.com/ternarybob/floatwatch/internal/models"
)

// Options configures a source adapter. The HTTP client is injected so
// adapters never mutate a shared process-wide client.
type Options struct {
	BaseURL string // Empty uses the adapter's production default
	Client  *http.Client
	Logger  arbor.ILogger
	Retry   *RetryPolicy
	Delay   *PoliteDelay
}

func (o Options) withDefaults(defaultBaseURL string) Options {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if o.Logger == nil {
		o.Logger = common.GetLogger()
	}
	if o.Retry == nil {
		o.Retry = NewRetryPolicy(3, time.Second)
	}
	if o.Delay == nil {
		o.Delay = NewPoliteDelay(time.Second)
	}
	return o
}

func (o Options) fetcher() *fetcher {
	return &fetcher{
		client: o.Client,
		retry:  o.Retry,
		delay:  o.Delay,
		logger: o.Logger,
	}
}

// LimitPages caps an adapter's page depth regardless of what the caller
// requests, for sources configured with their own max_pages.
func LimitPages(adapter interfaces.SourceAdapter, maxPages int) interfaces.SourceAdapter {
	if maxPages < 1 {
		return adapter
	}
	return &pageLimited{SourceAdapter: adapter, maxPages: maxPages}
}

type pageLimited struct {
	interfaces.SourceAdapter
	maxPages int
}

func (p *pageLimited) Fetch(ctx context.Context, maxPages int) ([]*models.Article, error) {
	if maxPages > p.maxPages || maxPages < 1 {
		maxPages = p.maxPages
	}
	return p.SourceAdapter.Fetch(ctx, maxPages)
}
