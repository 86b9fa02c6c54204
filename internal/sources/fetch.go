// Package sources implements the news wire adapters. Each adapter fetches
// paginated listings from one source, normalizes entries into Article
// records, and fails soft: an unreachable page or malformed item is logged
// and skipped, never fatal to the run.
package sources

import (
	"context"
	"io"
	"net/http"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/floatwatch/internal/models"
)

// fetcher bundles the HTTP plumbing shared by every adapter: injected
// client, per-page retry, and per-domain polite delay.
type fetcher struct {
	client *http.Client
	retry  *RetryPolicy
	delay  *PoliteDelay
	logger arbor.ILogger
}

// get fetches a URL with retry and politeness applied, returning the body.
func (f *fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	return f.do(ctx, http.MethodGet, rawURL, nil)
}

// post issues a POST with retry and politeness applied.
func (f *fetcher) post(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	return f.do(ctx, http.MethodPost, rawURL, headers)
}

func (f *fetcher) do(ctx context.Context, method, rawURL string, headers map[string]string) ([]byte, error) {
	if err := f.delay.Wait(ctx, rawURL); err != nil {
		return nil, err
	}

	var body []byte
	err := f.retry.Execute(ctx, f.logger, func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return 0, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, nil
		}

		body, err = io.ReadAll(resp.Body)
		return resp.StatusCode, err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// sortNewestFirst orders articles by (published date, published time)
// descending before an adapter returns them.
func sortNewestFirst(articles []*models.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].PublishedDate.Equal(articles[j].PublishedDate) {
			return articles[i].PublishedDate.After(articles[j].PublishedDate)
		}
		return articles[i].PublishedTime.After(articles[j].PublishedTime)
	})
}
