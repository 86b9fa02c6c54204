// Package tickers extracts stock ticker symbols from press release text.
// Exchange-qualified mentions (NASDAQ: ABC) are the authoritative signal;
// bare-parenthetical heuristics exist only as a gated fallback for sources
// with weak structure.
package tickers

import (
	"regexp"
	"strings"
)

// exchangePatterns match exchange-qualified ticker mentions. The exchange
// label is case-insensitive but the captured symbol must already be
// upper-case in the source text.
var exchangePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?i:nasdaq):\s*([A-Z][A-Z0-9.]{0,9})`),
	regexp.MustCompile(`\b(?i:nyse\s+american|nyseamerican|nysemkt):\s*([A-Z][A-Z0-9.]{0,9})`),
	regexp.MustCompile(`\b(?i:nyse):\s*([A-Z][A-Z0-9.]{0,9})`),
	regexp.MustCompile(`\b(?i:otcqb|otcqx|otcbb|otc\s+pink):\s*([A-Z][A-Z0-9.]{0,9})`),
	regexp.MustCompile(`\b(?i:symbol):\s*([A-Z][A-Z0-9.]{0,9})\b`),
	regexp.MustCompile(`\b(?i:ticker(?:\s+symbol)?):\s*([A-Z][A-Z0-9.]{0,9})\b`),
}

// fallbackPatterns are noisy and only applied when no exchange-qualified
// mention exists and the text passes the finance keyword gate.
var fallbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(([A-Z]{2,4})\)`),
	regexp.MustCompile(`(?i:\bstock)\s+([A-Z]{2,4})\b`),
	regexp.MustCompile(`(?i:\bshares\s+of)\s+([A-Z]{2,4})\b`),
}

var financeKeywords = []string{
	"bank", "finance", "financial", "invest", "stock", "market",
	"capital", "asset", "equity", "fund", "wealth", "shares",
}

// Extract returns the exchange-qualified ticker symbols found in text,
// upper-cased, deduplicated, first-seen order preserved. Empty text or
// text without exchange mentions yields an empty result.
func Extract(text string) []string {
	return collect(text, exchangePatterns)
}

// ExtractWithFallback behaves like Extract but, when no exchange-qualified
// mention is present, falls back to bare-parenthetical and keyword-adjacent
// patterns. The fallback only fires when the text contains a financial
// keyword, which keeps the false-positive rate tolerable for loosely
// structured sources.
func ExtractWithFallback(text string) []string {
	found := collect(text, exchangePatterns)
	if len(found) > 0 {
		return found
	}
	if !hasFinanceKeyword(text) {
		return nil
	}
	return collect(text, fallbackPatterns)
}

func collect(text string, patterns []*regexp.Regexp) []string {
	if text == "" {
		return nil
	}

	var symbols []string
	seen := make(map[string]struct{})

	for _, pattern := range patterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			symbol := strings.ToUpper(strings.TrimSpace(match[1]))
			if symbol == "" {
				continue
			}
			if _, ok := seen[symbol]; ok {
				continue
			}
			seen[symbol] = struct{}{}
			symbols = append(symbols, symbol)
		}
	}

	return symbols
}

func hasFinanceKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range financeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
