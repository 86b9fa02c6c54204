package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/floatwatch/internal/models"
)

const (
	// DefaultBaseURL is the base URL for the market data API.
	DefaultBaseURL = "https://eodhd.com/api"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10
)

// Client is a market data API client. It fetches fundamentals (share counts,
// market cap, company name) and live pricing per symbol.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new market data API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// fundamentalsResponse carries the subset of the fundamentals payload the
// enricher needs.
type fundamentalsResponse struct {
	General struct {
		Name string `json:"Name"`
	} `json:"General"`
	SharesStats struct {
		SharesFloat       *float64 `json:"SharesFloat"`
		SharesOutstanding *float64 `json:"SharesOutstanding"`
	} `json:"SharesStats"`
	Highlights struct {
		MarketCapitalization *float64 `json:"MarketCapitalization"`
	} `json:"Highlights"`
}

type realTimeResponse struct {
	Close json.Number `json:"close"`
}

// GetQuote fetches a symbol's market snapshot. The float falls back to
// shares outstanding when the provider reports no float figure; a symbol
// with neither returns ErrUnavailable.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var fund fundamentalsResponse
	if err := c.get(ctx, "/fundamentals/"+symbol+".US", nil, &fund); err != nil {
		return nil, err
	}

	shares := fund.SharesStats.SharesFloat
	if shares == nil || *shares <= 0 {
		shares = fund.SharesStats.SharesOutstanding
	}
	if shares == nil || *shares <= 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrUnavailable)
	}

	quote := &models.Quote{
		Symbol:    symbol,
		Name:      fund.General.Name,
		FloatRaw:  shares,
		Float:     models.FormatShares(*shares),
		UpdatedAt: time.Now().UTC(),
	}
	if quote.Name == "" {
		quote.Name = models.Unavailable
	}
	if mc := fund.Highlights.MarketCapitalization; mc != nil && *mc > 0 {
		quote.MarketCap = models.FormatMarketCap(*mc)
	} else {
		quote.MarketCap = models.Unavailable
	}

	// Pricing comes from a separate endpoint; its absence degrades the
	// quote, it does not fail it.
	var live realTimeResponse
	if err := c.get(ctx, "/real-time/"+symbol+".US", nil, &live); err != nil {
		if c.logger != nil {
			c.logger.Debug().Err(err).Str("symbol", symbol).Msg("Live price unavailable")
		}
		return quote, nil
	}
	if price, err := live.Close.Float64(); err == nil && price > 0 {
		quote.Price = &price
	}

	return quote, nil
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("Market data API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return &RateLimitError{RetryAfter: time.Second}
	}
	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", path, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
