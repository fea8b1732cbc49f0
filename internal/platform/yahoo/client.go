// Package yahoo reads quotes and price history from the Yahoo Finance chart
// API.
package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/guregu/null/v6"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/platform/httpx"
)

const (
	// DefaultBaseURL is the public chart API host.
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	sourceName     = "yahoo"
)

// Client is the Yahoo Finance chart API client. It implements both
// domain.QuoteSource and domain.HistorySource.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Yahoo client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = httpx.New(0)
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// Name implements domain.QuoteSource.
func (c *Client) Name() string { return sourceName }

// Quote implements domain.QuoteSource using the chart metadata block.
func (c *Client) Quote(ctx context.Context, symbol domain.TickerSymbol) (domain.Quote, error) {
	res, err := c.chart(ctx, symbol, "5d", "1d")
	if err != nil {
		return domain.Quote{}, err
	}
	m := res.Meta
	if m.RegularMarketPrice == nil {
		return domain.Quote{}, fmt.Errorf("yahoo: quote %s: no price: %w", symbol, domain.ErrUpstreamUnavailable)
	}

	q := domain.Quote{
		Symbol:        symbol,
		DisplayName:   firstNonEmpty(m.ShortName, m.LongName),
		Price:         null.FloatFromPtr(m.RegularMarketPrice),
		PreviousClose: null.FloatFromPtr(firstNonNil(m.PreviousClose, m.ChartPreviousClose)),
		High:          null.FloatFromPtr(m.RegularMarketDayHigh),
		Low:           null.FloatFromPtr(m.RegularMarketDayLow),
		Volume:        null.IntFromPtr(m.RegularMarketVolume),
		Currency:      m.Currency,
		Source:        sourceName,
		AsOf:          time.Now().UTC(),
	}
	if m.RegularMarketTime != 0 {
		q.AsOf = time.Unix(m.RegularMarketTime, 0).UTC()
	}
	if bars := res.candles(); len(bars) > 0 {
		q.Open = null.FloatFrom(bars[len(bars)-1].Open)
	}
	return q, nil
}

// History implements domain.HistorySource.
func (c *Client) History(ctx context.Context, symbol domain.TickerSymbol, r domain.HistoryRange) ([]domain.Candle, error) {
	res, err := c.chart(ctx, symbol, r.Period, r.Interval)
	if err != nil {
		return nil, err
	}
	return res.candles(), nil
}

func (c *Client) chart(ctx context.Context, symbol domain.TickerSymbol, period, interval string) (chartResult, error) {
	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", interval)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol.String()), params.Encode())

	var resp chartResponse
	if err := httpx.GetJSON(ctx, c.httpClient, sourceName, u, nil, &resp); err != nil {
		return chartResult{}, fmt.Errorf("yahoo: chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return chartResult{}, fmt.Errorf("yahoo: chart %s: %s: %w", symbol, resp.Chart.Error.Description, domain.ErrUpstreamUnavailable)
	}
	if len(resp.Chart.Result) == 0 {
		return chartResult{}, fmt.Errorf("yahoo: chart %s: empty result: %w", symbol, domain.ErrUpstreamUnavailable)
	}
	return resp.Chart.Result[0], nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
