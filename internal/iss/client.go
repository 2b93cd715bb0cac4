package iss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/guttosm/issvwap/internal/domain/models"
	"github.com/guttosm/issvwap/internal/logger"
	"github.com/guttosm/issvwap/internal/metrics"
)

var (
	// ErrNetwork wraps connection-level failures (timeouts, resets, DNS).
	ErrNetwork = errors.New("iss: network error")
	// ErrDecode is returned when a 200 response body cannot be parsed.
	ErrDecode = errors.New("iss: decode error")
)

// StatusError reports a non-200 response from the trade-history endpoint.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("iss: unexpected status %d for %s", e.StatusCode, e.URL)
}

// Options describes the ISS endpoint. Zero fields fall back to the MOEX defaults.
type Options struct {
	BaseURL string
	Engine  string
	Market  string
	Timeout time.Duration
}

// PageRequest asks for up to Limit trades with TRADENO strictly greater than After.
type PageRequest struct {
	Symbol string
	Board  string
	After  int64
	Limit  int
}

// Client fetches trade-history pages from ISS.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	engine  string
	market  string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a Client. A nil httpClient gets a default client with opts.Timeout.
func NewClient(opts Options, httpClient *http.Client) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://iss.moex.com/iss"
	}
	if opts.Engine == "" {
		opts.Engine = "stock"
	}
	if opts.Market == "" {
		opts.Market = "shares"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		engine:  opts.Engine,
		market:  opts.Market,
		http:    httpClient,
		log:     logger.Component("iss"),
	}
}

// tradesURL renders the reference/55 endpoint for one page.
func (c *Client) tradesURL(req PageRequest) string {
	q := url.Values{}
	q.Set("iss.json", "extended")
	q.Set("iss.meta", "off")
	q.Set("tradeno", strconv.FormatInt(req.After, 10))
	q.Set("next_trade", "1")
	q.Set("limit", strconv.Itoa(req.Limit))

	return fmt.Sprintf("%s/engines/%s/markets/%s/boards/%s/securities/%s/trades.json?%s",
		c.baseURL,
		url.PathEscape(c.engine),
		url.PathEscape(c.market),
		url.PathEscape(req.Board),
		url.PathEscape(req.Symbol),
		q.Encode(),
	)
}

// FetchPage performs one GET against the trade-history endpoint.
//
// Returns:
//   - trades in the order the feed sent them (ascending TRADENO).
//   - *StatusError on a non-200 status.
//   - an error wrapping ErrNetwork on transport failure, ErrDecode on a malformed body.
func (c *Client) FetchPage(ctx context.Context, req PageRequest) ([]models.Trade, error) {
	endpoint := c.tradesURL(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.ISSRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ISSRequests.WithLabelValues("network").Inc()
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.ISSRequests.WithLabelValues("status").Inc()
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	trades, err := decodeTrades(resp.Body)
	if err != nil {
		metrics.ISSRequests.WithLabelValues("decode").Inc()
		return nil, err
	}
	metrics.ISSRequests.WithLabelValues("ok").Inc()

	c.log.Debug().
		Str("symbol", req.Symbol).
		Str("board", req.Board).
		Int64("after", req.After).
		Int("rows", len(trades)).
		Dur("elapsed", time.Since(start)).
		Msg("iss page fetched")

	return trades, nil
}

// tradeRow is one element of the "trades" block in iss.json=extended output.
type tradeRow struct {
	TradeNo   int64           `json:"TRADENO"`
	TradeTime string          `json:"TRADETIME"`
	BoardID   string          `json:"BOARDID"`
	SecID     string          `json:"SECID"`
	Price     decimal.Decimal `json:"PRICE"`
	Quantity  int64           `json:"QUANTITY"`
	Value     decimal.Decimal `json:"VALUE"`
	BuySell   string          `json:"BUYSELL"`
	Decimals  int             `json:"DECIMALS"`
}
