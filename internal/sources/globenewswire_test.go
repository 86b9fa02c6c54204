package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const globeListingPage = `
<html><body>
<div class="newsLink">
  <div class="mainLink"><a href="/news-release/2026/08/28/helix-merger">Helix Therapeutics Announces Merger</a></div>
  <div class="date-source"><span>August 28, 2026 11:45 ET</span></div>
</div>
<div class="newsLink">
  <div class="mainLink"><a href="/news-release/2026/08/27/sector-report">Quarterly Sector Report Released</a></div>
  <div class="date-source"><span>August 27, 2026 09:00 ET</span></div>
</div>
</body></html>`

func newGlobeNewswireTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/newsroom", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			w.Write([]byte("<html><body></body></html>"))
			return
		}
		w.Write([]byte(globeListingPage))
	})
	mux.HandleFunc("/news-release/2026/08/28/helix-merger", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><article><p>Helix Therapeutics (NYSE American: HLX) entered a merger agreement.</p></article></body></html>`))
	})
	mux.HandleFunc("/news-release/2026/08/27/sector-report", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><article><p>Sector-wide analysis without listed issuers.</p></article></body></html>`))
	})
	return httptest.NewServer(mux)
}

func TestGlobeNewswireFetch(t *testing.T) {
	srv := newGlobeNewswireTestServer(t)
	defer srv.Close()

	adapter := NewGlobeNewswire(testOptions(srv))
	articles, err := adapter.Fetch(context.Background(), 2)
	require.NoError(t, err)

	// The tickerless sector report is dropped.
	require.Len(t, articles, 1)
	article := articles[0]
	assert.Equal(t, "globenewswire", article.Source)
	assert.Equal(t, "Helix Therapeutics Announces Merger", article.Title)
	assert.Equal(t, srv.URL+"/news-release/2026/08/28/helix-merger", article.URL)
	assert.Equal(t, []string{"HLX"}, article.Tickers)
	assert.Contains(t, article.Summary, "merger agreement")

	want := time.Date(2026, 8, 28, 11, 45, 0, 0, Eastern())
	assert.True(t, article.PublishedDate.Equal(want),
		"got %v, want %v", article.PublishedDate, want)
}

func TestGlobeNewswireFetchDetailFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/newsroom", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			w.Write([]byte("<html><body></body></html>"))
			return
		}
		w.Write([]byte(globeListingPage))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewGlobeNewswire(testOptions(srv))
	articles, err := adapter.Fetch(context.Background(), 1)
	require.NoError(t, err, "detail failures drop the item, not the fetch")
	assert.Empty(t, articles)
}
