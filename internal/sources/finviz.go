package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/floatwatch/internal/models"
)

const (
	finvizBaseURL        = "https://finviz.com"
	finvizScreenerRows   = 20
	finvizScreenerFilter = "sh_float_u10" // shares float under 10M
)

var (
	finvizSymbolPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)
	finvizNewsLayouts   = []string{"Jan-02-06 03:04PM", "Jan-2-06 03:04PM"}
	finvizTimeLayouts   = []string{"03:04PM"}
)

// Finviz walks the low-float screener and collects recent news for each
// screened ticker from its quote page. Unlike the wire adapters the ticker
// is known up front, so no text extraction happens; the quote page also
// yields the float and price used to pre-filter symbols.
type Finviz struct {
	baseURL string
	fetcher *fetcher
	logger  arbor.ILogger
}

// NewFinviz creates the Finviz adapter.
func NewFinviz(opts Options) *Finviz {
	opts = opts.withDefaults(finvizBaseURL)
	return &Finviz{
		baseURL: opts.BaseURL,
		fetcher: opts.fetcher(),
		logger:  opts.Logger,
	}
}

func (s *Finviz) Name() string { return "finviz" }

// Fetch screens for low-float symbols, then gathers each symbol's news
// table. Tickers whose quote page reports no float are dropped.
func (s *Finviz) Fetch(ctx context.Context, maxPages int) ([]*models.Article, error) {
	symbols, err := s.screen(ctx, maxPages)
	if err != nil {
		return nil, err
	}

	var articles []*models.Article
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return articles, ctx.Err()
		}
		items, err := s.quoteNews(ctx, symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Finviz quote page failed, skipping symbol")
			continue
		}
		articles = append(articles, items...)
	}

	sortNewestFirst(articles)
	s.logger.Info().Int("symbols", len(symbols)).Int("count", len(articles)).Msg("Finviz fetch complete")
	return articles, nil
}

// screen pages through the screener and returns the symbols in screen order,
// deduplicated.
func (s *Finviz) screen(ctx context.Context, maxPages int) ([]string, error) {
	var symbols []string
	seen := make(map[string]bool)

	for page := 1; page <= maxPages; page++ {
		offset := 1 + finvizScreenerRows*(page-1)
		pageURL := fmt.Sprintf("%s/screener.ashx?v=111&f=%s&r=%d", s.baseURL, finvizScreenerFilter, offset)

		body, err := s.fetcher.get(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return symbols, ctx.Err()
			}
			s.logger.Warn().Err(err).Int("page", page).Msg("Finviz screener page failed, skipping")
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			s.logger.Warn().Err(err).Int("page", page).Msg("Finviz screener parse failed, skipping")
			continue
		}

		before := len(symbols)
		doc.Find(`a[href*="quote.ashx?t="]`).Each(func(_ int, sel *goquery.Selection) {
			symbol := strings.TrimSpace(sel.Text())
			if !finvizSymbolPattern.MatchString(symbol) || seen[symbol] {
				return
			}
			seen[symbol] = true
			symbols = append(symbols, symbol)
		})
		if len(symbols) == before {
			s.logger.Debug().Int("page", page).Msg("Finviz screener page empty, stopping pagination")
			break
		}
	}

	return symbols, nil
}

// quoteNews parses a symbol's quote page: the snapshot table for float and
// price, the news table for recent headlines. A symbol without a reported
// float yields no articles.
func (s *Finviz) quoteNews(ctx context.Context, symbol string) ([]*models.Article, error) {
	pageURL := fmt.Sprintf("%s/quote.ashx?t=%s", s.baseURL, symbol)

	body, err := s.fetcher.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	floatShares, _ := snapshotValue(doc, "Shs Float")
	if floatShares == nil {
		s.logger.Debug().Str("symbol", symbol).Msg("Finviz float unavailable, dropping symbol")
		return nil, nil
	}
	price, _ := snapshotValue(doc, "Price")

	var articles []*models.Article
	lastDay := FallbackNow()

	doc.Find("table.fullview-news-outer tr, #news-table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		link := cells.Eq(1).Find("a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = s.baseURL + href
		}

		published, day := parseFinvizNewsTime(strings.TrimSpace(cells.Eq(0).Text()), lastDay)
		lastDay = day

		article := models.NewArticle(title, "", href, published, []string{symbol})
		article.Source = s.Name()
		quote := models.Quote{
			Symbol:    symbol,
			FloatRaw:  floatShares,
			Float:     models.FormatShares(*floatShares),
			Price:     price,
			UpdatedAt: time.Now().UTC(),
		}
		article.FloatData[symbol] = quote
		articles = append(articles, article)
	})

	return articles, nil
}

// parseFinvizNewsTime handles the news table's two cell forms: a full
// "Jan-02-06 03:04PM" stamp on the first row of a day, then bare "03:04PM"
// stamps that inherit the preceding row's date.
func parseFinvizNewsTime(raw string, lastDay time.Time) (time.Time, time.Time) {
	for _, layout := range finvizNewsLayouts {
		if t, err := time.ParseInLocation(layout, raw, Eastern()); err == nil {
			return t, t
		}
	}
	for _, layout := range finvizTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, Eastern()); err == nil {
			merged := time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(),
				t.Hour(), t.Minute(), 0, 0, Eastern())
			return merged, lastDay
		}
	}
	return lastDay, lastDay
}

// snapshotValue reads a labeled cell from the snapshot-table2 grid, parsing
// "4.52M" / "1.20B" suffixes. Returns nil when the cell is "-" or missing.
func snapshotValue(doc *goquery.Document, label string) (*float64, bool) {
	var value *float64
	found := false

	doc.Find("table.snapshot-table2 td").EachWithBreak(func(idx int, cell *goquery.Selection) bool {
		if strings.TrimSpace(cell.Text()) != label {
			return true
		}
		next := cell.Next()
		if next.Length() == 0 {
			return false
		}
		found = true
		value = parseAbbreviatedNumber(strings.TrimSpace(next.Text()))
		return false
	})

	return value, found
}

// parseAbbreviatedNumber parses Finviz numeric cells: "4.52M", "1.20B",
// "12,345" or plain decimals. Returns nil for "-" or unparseable input.
func parseAbbreviatedNumber(raw string) *float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" || raw == "-" {
		return nil
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(raw, "B"):
		multiplier = 1e9
		raw = strings.TrimSuffix(raw, "B")
	case strings.HasSuffix(raw, "M"):
		multiplier = 1e6
		raw = strings.TrimSuffix(raw, "M")
	case strings.HasSuffix(raw, "K"):
		multiplier = 1e3
		raw = strings.TrimSuffix(raw, "K")
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	n *= multiplier
	return &n
}
