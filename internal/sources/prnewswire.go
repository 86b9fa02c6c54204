package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/floatwatch/internal/models"
	"github.com/ternarybob/floatwatch/internal/tickers"
)

const (
	prNewswireBaseURL  = "https://www.prnewswire.com"
	prNewswirePageSize = 25
)

// prItemSelectors locate listing items. The site shuffles layouts, so a
// fallback chain is tried in order until one matches.
var prItemSelectors = []string{
	".card-list-item",
	".news-release-item",
	".release-card",
	"article",
}

var prTitleSelectors = []string{".card-title", "h3", ".headline", "h2", "a.news-title"}
var prDateSelectors = []string{".card-date", ".date", ".timestamp", "time"}

var prDateLayouts = []string{
	"Jan 02, 2006, 15:04",
	"Jan 02, 2006 15:04",
	"Jan 02, 2006",
	"January 02, 2006",
	"01/02/2006",
	"2006-01-02",
}

// PRNewswire scrapes the PRNewswire financial services listing. Listing
// pages carry only headline and date, so each kept item costs a second
// fetch for the release body.
type PRNewswire struct {
	baseURL string
	fetcher *fetcher
	logger  arbor.ILogger
}

// NewPRNewswire creates the PRNewswire adapter.
func NewPRNewswire(opts Options) *PRNewswire {
	opts = opts.withDefaults(prNewswireBaseURL)
	return &PRNewswire{
		baseURL: opts.BaseURL,
		fetcher: opts.fetcher(),
		logger:  opts.Logger,
	}
}

func (s *PRNewswire) Name() string { return "prnewswire" }

// Fetch collects articles from up to maxPages listing pages. Page and item
// failures are logged and skipped.
func (s *PRNewswire) Fetch(ctx context.Context, maxPages int) ([]*models.Article, error) {
	var articles []*models.Article

	for page := 1; page <= maxPages; page++ {
		listURL := fmt.Sprintf("%s/news-releases/financial-services-latest-news/financial-services-latest-news-list/?page=%d&pagesize=%d",
			s.baseURL, page, prNewswirePageSize)

		body, err := s.fetcher.get(ctx, listURL)
		if err != nil {
			if ctx.Err() != nil {
				return articles, ctx.Err()
			}
			s.logger.Warn().Err(err).Int("page", page).Msg("PRNewswire listing fetch failed, skipping page")
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
		if err != nil {
			s.logger.Warn().Err(err).Int("page", page).Msg("PRNewswire listing parse failed, skipping page")
			continue
		}

		items := s.findItems(doc)
		if items == nil || items.Length() == 0 {
			// Natural end of feed.
			s.logger.Debug().Int("page", page).Msg("PRNewswire page had no items, stopping pagination")
			break
		}

		items.Each(func(_ int, item *goquery.Selection) {
			if article := s.parseItem(ctx, item); article != nil {
				articles = append(articles, article)
			}
		})
	}

	sortNewestFirst(articles)
	s.logger.Info().Int("count", len(articles)).Msg("PRNewswire fetch complete")
	return articles, nil
}

func (s *PRNewswire) findItems(doc *goquery.Document) *goquery.Selection {
	for _, selector := range prItemSelectors {
		if items := doc.Find(selector); items.Length() > 0 {
			return items
		}
	}
	return nil
}

// parseItem normalizes one listing item. Missing headline or permalink
// makes the item unusable and it is skipped, not fatal.
func (s *PRNewswire) parseItem(ctx context.Context, item *goquery.Selection) *models.Article {
	var titleElem *goquery.Selection
	for _, selector := range prTitleSelectors {
		if sel := item.Find(selector).First(); sel.Length() > 0 {
			titleElem = sel
			break
		}
	}
	if titleElem == nil {
		return nil
	}
	title := strings.TrimSpace(titleElem.Text())
	if title == "" {
		return nil
	}

	link, ok := titleElem.Attr("href")
	if !ok {
		link, ok = titleElem.Find("a").First().Attr("href")
	}
	if !ok {
		link, ok = item.Find("a").First().Attr("href")
	}
	if !ok || link == "" {
		return nil
	}
	if !strings.HasPrefix(link, "http") {
		link = s.baseURL + link
	}

	published := FallbackNow()
	for _, selector := range prDateSelectors {
		dateElem := item.Find(selector).First()
		if dateElem.Length() == 0 {
			continue
		}
		if t, ok := ParseSourceTime(dateElem.Text(), prDateLayouts...); ok {
			published = t
		}
		break
	}

	summary := s.fetchArticleBody(ctx, link)

	// PRNewswire releases frequently omit the exchange qualifier, so the
	// gated parenthetical fallback is enabled for this source.
	found := tickers.ExtractWithFallback(title + " " + summary)
	if len(found) == 0 {
		return nil
	}

	article := models.NewArticle(title, summary, link, published, found)
	article.Source = s.Name()
	return article
}

func (s *PRNewswire) fetchArticleBody(ctx context.Context, articleURL string) string {
	body, err := s.fetcher.get(ctx, articleURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", articleURL).Msg("PRNewswire article body fetch failed")
		return ""
	}
	return extractBody(string(body), s.baseURL)
}
