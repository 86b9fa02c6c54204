package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/floatwatch/internal/models"
	"github.com/ternarybob/floatwatch/internal/tickers"
)

const (
	accesswireBaseURL  = "https://www.accessnewswire.com"
	accesswirePageSize = 20
)

// Accesswire reads the newsroom JSON API. The payload carries full body
// HTML and an ISO-8601 timestamp, so no detail fetch is needed.
type Accesswire struct {
	baseURL string
	fetcher *fetcher
	logger  arbor.ILogger
}

// NewAccesswire creates the Accesswire adapter.
func NewAccesswire(opts Options) *Accesswire {
	opts = opts.withDefaults(accesswireBaseURL)
	return &Accesswire{
		baseURL: opts.BaseURL,
		fetcher: opts.fetcher(),
		logger:  opts.Logger,
	}
}

func (s *Accesswire) Name() string { return "accesswire" }

type accesswireResponse struct {
	Data struct {
		Articles []accesswireItem `json:"articles"`
	} `json:"data"`
}

type accesswireItem struct {
	Title      string `json:"title"`
	ReleaseURL string `json:"releaseurl"`
	Body       string `json:"body"`
	ADate      string `json:"adate"`
}

// Fetch pages through the newsroom API. Page indexes are zero-based.
func (s *Accesswire) Fetch(ctx context.Context, maxPages int) ([]*models.Article, error) {
	var articles []*models.Article

	for page := 0; page < maxPages; page++ {
		pageURL := fmt.Sprintf("%s/newsroom/api?pageindex=%d&pageSize=%d", s.baseURL, page, accesswirePageSize)

		body, err := s.fetcher.post(ctx, pageURL, map[string]string{"Origin": s.baseURL})
		if err != nil {
			if ctx.Err() != nil {
				return articles, ctx.Err()
			}
			s.logger.Warn().Err(err).Int("page", page).Msg("Accesswire page fetch failed, skipping")
			continue
		}

		var resp accesswireResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			s.logger.Warn().Err(err).Int("page", page).Msg("Accesswire page decode failed, skipping")
			continue
		}

		if len(resp.Data.Articles) == 0 {
			s.logger.Debug().Int("page", page).Msg("Accesswire page empty, stopping pagination")
			break
		}

		for idx, item := range resp.Data.Articles {
			article := s.parseItem(item)
			if article == nil {
				s.logger.Debug().Int("page", page).Int("index", idx).Msg("Accesswire item skipped")
				continue
			}
			articles = append(articles, article)
		}
	}

	sortNewestFirst(articles)
	s.logger.Info().Int("count", len(articles)).Msg("Accesswire fetch complete")
	return articles, nil
}

func (s *Accesswire) parseItem(item accesswireItem) *models.Article {
	if item.Title == "" || item.ReleaseURL == "" {
		return nil
	}

	summary := htmlToText(item.Body)

	// Accesswire body text is well structured; exchange-qualified mentions
	// are the only signal used.
	found := tickers.Extract(summary)
	if len(found) == 0 {
		return nil
	}

	published := FallbackNow()
	if t, err := time.Parse(time.RFC3339, item.ADate); err == nil {
		published = t.In(Eastern())
	} else if t, ok := ParseSourceTime(item.ADate, "2006-01-02T15:04:05", "2006-01-02 15:04:05"); ok {
		published = t
	}
	// Minute precision, matching every other source.
	published = published.Truncate(time.Minute)

	article := models.NewArticle(item.Title, summary, item.ReleaseURL, published, found)
	article.Source = s.Name()
	return article
}
