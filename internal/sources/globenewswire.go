package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/floatwatch/internal/models"
	"github.com/ternarybob/floatwatch/internal/tickers"
)

const (
	globeNewswireBaseURL  = "https://www.globenewswire.com"
	globeNewswirePageSize = 50
)

var globeDateLayouts = []string{
	"January 2, 2006 15:04",
	"January 02, 2006 15:04",
	"January 2, 2006",
}

// GlobeNewswire scrapes the newsroom listing. Listing rows carry title,
// link, and date; ticker extraction requires fetching each detail page
// since the listing has no body text.
type GlobeNewswire struct {
	baseURL string
	fetcher *fetcher
	logger  arbor.ILogger
}

// NewGlobeNewswire creates the GlobeNewswire adapter.
func NewGlobeNewswire(opts Options) *GlobeNewswire {
	opts = opts.withDefaults(globeNewswireBaseURL)
	return &GlobeNewswire{
		baseURL: opts.BaseURL,
		fetcher: opts.fetcher(),
		logger:  opts.Logger,
	}
}

func (s *GlobeNewswire) Name() string { return "globenewswire" }

// Fetch walks the newsroom listing pages, then visits each release page to
// extract tickers from the full text.
func (s *GlobeNewswire) Fetch(ctx context.Context, maxPages int) ([]*models.Article, error) {
	var articles []*models.Article

	for page := 1; page <= maxPages; page++ {
		pageURL := fmt.Sprintf("%s/newsroom?page=%d&pageSize=%d", s.baseURL, page, globeNewswirePageSize)

		body, err := s.fetcher.get(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return articles, ctx.Err()
			}
			s.logger.Warn().Err(err).Int("page", page).Msg("GlobeNewswire page fetch failed, skipping")
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			s.logger.Warn().Err(err).Int("page", page).Msg("GlobeNewswire page parse failed, skipping")
			continue
		}

		items := doc.Find("div.newsLink")
		if items.Length() == 0 {
			s.logger.Debug().Int("page", page).Msg("GlobeNewswire page empty, stopping pagination")
			break
		}

		items.EachWithBreak(func(idx int, sel *goquery.Selection) bool {
			if ctx.Err() != nil {
				return false
			}
			article := s.parseItem(ctx, sel)
			if article == nil {
				s.logger.Debug().Int("page", page).Int("index", idx).Msg("GlobeNewswire item skipped")
				return true
			}
			articles = append(articles, article)
			return true
		})
		if ctx.Err() != nil {
			return articles, ctx.Err()
		}
	}

	sortNewestFirst(articles)
	s.logger.Info().Int("count", len(articles)).Msg("GlobeNewswire fetch complete")
	return articles, nil
}

func (s *GlobeNewswire) parseItem(ctx context.Context, sel *goquery.Selection) *models.Article {
	link := sel.Find("div.mainLink > a").First()
	title := strings.TrimSpace(link.Text())
	href, _ := link.Attr("href")
	if title == "" || href == "" {
		return nil
	}
	if strings.HasPrefix(href, "/") {
		href = s.baseURL + href
	}

	published := FallbackNow()
	if raw := strings.TrimSpace(sel.Find("div.date-source span").First().Text()); raw != "" {
		if t, ok := ParseSourceTime(raw, globeDateLayouts...); ok {
			published = t
		}
	}

	// The listing row has no release text, so pull the detail page for both
	// the summary and ticker extraction.
	var summary string
	var found []string
	if detail, err := s.fetcher.get(ctx, href); err != nil {
		s.logger.Debug().Err(err).Str("url", href).Msg("GlobeNewswire detail fetch failed")
	} else {
		summary = extractBody(string(detail), href)
		found = tickers.Extract(fullPageText(string(detail)))
	}
	if len(found) == 0 {
		return nil
	}

	article := models.NewArticle(title, summary, href, published, found)
	article.Source = s.Name()
	return article
}
