// Package alphavantage reads quotes and daily bars from Alpha Vantage.
package alphavantage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/platform/httpx"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co"
	sourceName     = "alphavantage"
)

// Client implements domain.QuoteSource and domain.HistorySource.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an Alpha Vantage client.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = httpx.New(0)
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

// Name implements domain.QuoteSource.
func (c *Client) Name() string { return sourceName }

// VendorSymbol maps a canonical symbol to Alpha Vantage notation. Indian
// listings are served under the BSE suffix only.
func VendorSymbol(s domain.TickerSymbol) (string, error) {
	switch s.Exchange() {
	case "NSE", "BSE":
		return s.Base() + ".BSE", nil
	case "US":
		return s.String(), nil
	default:
		return "", fmt.Errorf("alphavantage: %s: %w", s, domain.ErrNotSupported)
	}
}

type globalQuote struct {
	Quote map[string]string `json:"Global Quote"`
	// Rate limiting and bad keys come back as 200 with one of these set.
	Note        string `json:"Note"`
	Information string `json:"Information"`
	Error       string `json:"Error Message"`
}

// Quote implements domain.QuoteSource with the GLOBAL_QUOTE function.
func (c *Client) Quote(ctx context.Context, symbol domain.TickerSymbol) (domain.Quote, error) {
	vs, err := VendorSymbol(symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	var resp globalQuote
	if err := c.query(ctx, "GLOBAL_QUOTE", vs, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("alphavantage: quote %s: %w", symbol, err)
	}
	if msg := firstNonEmpty(resp.Error, resp.Note, resp.Information); msg != "" {
		return domain.Quote{}, fmt.Errorf("alphavantage: quote %s: %s: %w", symbol, msg, domain.ErrUpstreamUnavailable)
	}
	price := parseFloat(resp.Quote["05. price"])
	if !price.Valid {
		return domain.Quote{}, fmt.Errorf("alphavantage: quote %s: no price: %w", symbol, domain.ErrUpstreamUnavailable)
	}

	q := domain.Quote{
		Symbol:        symbol,
		Price:         price,
		PreviousClose: parseFloat(resp.Quote["08. previous close"]),
		Open:          parseFloat(resp.Quote["02. open"]),
		High:          parseFloat(resp.Quote["03. high"]),
		Low:           parseFloat(resp.Quote["04. low"]),
		Currency:      symbol.Currency(),
		Source:        sourceName,
		AsOf:          time.Now().UTC(),
	}
	if v, err := strconv.ParseInt(resp.Quote["06. volume"], 10, 64); err == nil {
		q.Volume = null.IntFrom(v)
	}
	if d, err := time.Parse(time.DateOnly, resp.Quote["07. latest trading day"]); err == nil {
		q.AsOf = d
	}
	return q, nil
}

// History implements domain.HistorySource for daily bars only.
func (c *Client) History(ctx context.Context, symbol domain.TickerSymbol, r domain.HistoryRange) ([]domain.Candle, error) {
	if r.Interval != "1d" {
		return nil, fmt.Errorf("alphavantage: interval %q: %w", r.Interval, domain.ErrNotSupported)
	}
	vs, err := VendorSymbol(symbol)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Series      map[string]map[string]string `json:"Time Series (Daily)"`
		Note        string                       `json:"Note"`
		Information string                       `json:"Information"`
		Error       string                       `json:"Error Message"`
	}
	if err := c.query(ctx, "TIME_SERIES_DAILY", vs, &resp); err != nil {
		return nil, fmt.Errorf("alphavantage: history %s: %w", symbol, err)
	}
	if msg := firstNonEmpty(resp.Error, resp.Note, resp.Information); msg != "" {
		return nil, fmt.Errorf("alphavantage: history %s: %s: %w", symbol, msg, domain.ErrUpstreamUnavailable)
	}

	start := r.Start(time.Now())
	out := make([]domain.Candle, 0, len(resp.Series))
	for day, bar := range resp.Series {
		d, err := time.Parse(time.DateOnly, day)
		if err != nil || d.Before(start) {
			continue
		}
		vol, _ := strconv.ParseInt(bar["5. volume"], 10, 64)
		out = append(out, domain.Candle{
			Date:   d,
			Open:   parseFloat(bar["1. open"]).Float64,
			High:   parseFloat(bar["2. high"]).Float64,
			Low:    parseFloat(bar["3. low"]).Float64,
			Close:  parseFloat(bar["4. close"]).Float64,
			Volume: vol,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (c *Client) query(ctx context.Context, function, symbol string, out any) error {
	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)
	return httpx.GetJSON(ctx, c.httpClient, sourceName, c.baseURL+"/query?"+params.Encode(), nil, out)
}

func parseFloat(s string) null.Float {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
