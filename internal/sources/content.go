package sources

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// bodySelectors locate the main release text on a detail page, most
// specific first. Layouts drift, so the chain ends at <main>.
var bodySelectors = []string{
	".release-body",
	".article-body",
	"article",
	"main",
}

// extractBody pulls the main release text out of a detail page and converts
// it to readable markdown. Returns empty when nothing matched.
func extractBody(html, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	for _, selector := range bodySelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		fragment, err := goquery.OuterHtml(sel)
		if err != nil {
			continue
		}

		converter := md.NewConverter(baseURL, true, nil)
		text, err := converter.ConvertString(fragment)
		if err != nil || strings.TrimSpace(text) == "" {
			// Conversion produced nothing useful, fall back to raw text.
			return strings.TrimSpace(sel.Text())
		}
		return strings.TrimSpace(text)
	}

	return ""
}

// htmlToText strips markup from an inline HTML fragment, for sources that
// deliver body HTML in their listing payload.
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// fullPageText returns the whole page's visible text with collapsed
// whitespace, used when tickers can appear anywhere in the release.
func fullPageText(html string) string {
	return htmlToText(html)
}
