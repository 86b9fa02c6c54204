package models

import (
	"fmt"
	"strings"
	"time"
)

// Article represents a normalized press release from any news wire source.
type Article struct {
	// Identity
	ID     string `json:"id"`     // art_{uuid}, assigned by storage on first save
	URL    string `json:"url"`    // Natural key, used for deduplication
	Source string `json:"source"` // Adapter name (prnewswire, accesswire, globenewswire, finviz)

	// Content
	Title   string `json:"title"`
	Summary string `json:"summary"` // Extracted body text, may be empty

	// Publication timestamp, normalized to US/Eastern where the source
	// provides a parseable date, otherwise capture time.
	PublishedDate time.Time `json:"published_date"`
	PublishedTime time.Time `json:"published_time"` // Time-of-day component, minute precision

	// Tickers mentioned in the release, insertion order preserved, uppercase, unique.
	Tickers []string `json:"tickers"`

	// FloatData maps ticker symbol to its market snapshot. Empty until the
	// enrichment stage attaches quotes.
	FloatData map[string]Quote `json:"float_data"`

	CreatedAt time.Time `json:"created_at"`
}

// NewArticle creates an article with normalized tickers.
func NewArticle(title, summary, url string, published time.Time, tickers []string) *Article {
	a := &Article{
		Title:         title,
		Summary:       summary,
		URL:           url,
		PublishedDate: published,
		PublishedTime: published,
		FloatData:     make(map[string]Quote),
	}
	for _, t := range tickers {
		a.AddTicker(t)
	}
	return a
}

// AddTicker appends a ticker symbol, upper-cased, skipping duplicates.
func (a *Article) AddTicker(symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return
	}
	for _, existing := range a.Tickers {
		if existing == symbol {
			return
		}
	}
	a.Tickers = append(a.Tickers, symbol)
}

// HasTickers reports whether the article mentions at least one ticker.
func (a *Article) HasTickers() bool {
	return len(a.Tickers) > 0
}

// HasFloatData reports whether at least one attached quote carries a usable
// float figure. Articles failing this are dropped before persistence.
func (a *Article) HasFloatData() bool {
	for _, q := range a.FloatData {
		if q.FloatRaw != nil {
			return true
		}
	}
	return false
}

// AttachQuotes builds FloatData as the sub-mapping of quotes restricted to the
// article's own tickers. Tickers without a quote are simply absent.
func (a *Article) AttachQuotes(quotes map[string]Quote) {
	a.FloatData = make(map[string]Quote, len(a.Tickers))
	for _, symbol := range a.Tickers {
		if q, ok := quotes[symbol]; ok {
			a.FloatData[symbol] = q
		}
	}
}

func (a *Article) String() string {
	if len(a.Tickers) == 0 {
		return fmt.Sprintf("%s - no tickers", a.Title)
	}
	return fmt.Sprintf("%s - %s", a.Title, strings.Join(a.Tickers, ", "))
}

// Quote is a point-in-time market snapshot for one ticker.
type Quote struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"` // Company display name or "N/A"

	// FloatRaw is the numeric share count. Nil means unavailable, not zero.
	FloatRaw *float64 `json:"float_raw,omitempty"`
	// Float is the human-formatted share count (e.g. "12.34M", "1.20B").
	Float string `json:"float"`

	// Price is the last traded price. Nil renders as "N/A".
	Price *float64 `json:"price,omitempty"`

	// MarketCap is human-formatted ("$1.23B") or "N/A".
	MarketCap string `json:"market_cap"`

	UpdatedAt time.Time `json:"updated_at"`
}

// PriceDisplay returns the raw price as a string, or "N/A" when absent.
func (q Quote) PriceDisplay() string {
	if q.Price == nil {
		return Unavailable
	}
	return fmt.Sprintf("%g", *q.Price)
}

// Unavailable is the sentinel for missing market data fields.
const Unavailable = "N/A"

// FormatShares renders a share count for display: billions and millions with
// two decimals, smaller values as a comma-grouped integer.
func FormatShares(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	default:
		return groupThousands(int64(v))
	}
}

// FormatMarketCap renders a market capitalization with a dollar prefix.
func FormatMarketCap(v float64) string {
	return "$" + FormatShares(v)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
