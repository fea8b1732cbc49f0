// Package rapidapi reads quotes from the "Yahoo Finance real time" API hosted
// on RapidAPI.
package rapidapi

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
	DefaultHost = "yahoo-finance-real-time1.p.rapidapi.com"
	sourceName  = "rapidapi"
)

// Client implements domain.QuoteSource.
type Client struct {
	baseURL    string
	host       string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a RapidAPI client. baseURL defaults to https://host.
func NewClient(apiKey, host, baseURL string, httpClient *http.Client) *Client {
	if host == "" {
		host = DefaultHost
	}
	if baseURL == "" {
		baseURL = "https://" + host
	}
	if httpClient == nil {
		httpClient = httpx.New(0)
	}
	return &Client{baseURL: baseURL, host: host, apiKey: apiKey, httpClient: httpClient}
}

// Name implements domain.QuoteSource.
func (c *Client) Name() string { return sourceName }

// Quote implements domain.QuoteSource.
func (c *Client) Quote(ctx context.Context, symbol domain.TickerSymbol) (domain.Quote, error) {
	params := url.Values{}
	params.Set("region", "US")
	params.Set("symbols", symbol.String())

	h := http.Header{}
	h.Set("X-RapidAPI-Key", c.apiKey)
	h.Set("X-RapidAPI-Host", c.host)

	var resp struct {
		QuoteResponse struct {
			Result []struct {
				Symbol                     string   `json:"symbol"`
				ShortName                  string   `json:"shortName"`
				LongName                   string   `json:"longName"`
				Currency                   string   `json:"currency"`
				RegularMarketPrice         *float64 `json:"regularMarketPrice"`
				RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose"`
				RegularMarketOpen          *float64 `json:"regularMarketOpen"`
				RegularMarketDayHigh       *float64 `json:"regularMarketDayHigh"`
				RegularMarketDayLow        *float64 `json:"regularMarketDayLow"`
				RegularMarketVolume        *int64   `json:"regularMarketVolume"`
				RegularMarketTime          int64    `json:"regularMarketTime"`
			} `json:"result"`
		} `json:"quoteResponse"`
	}
	u := c.baseURL + "/market/get-quotes?" + params.Encode()
	if err := httpx.GetJSON(ctx, c.httpClient, sourceName, u, h, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("rapidapi: quote %s: %w", symbol, err)
	}
	if len(resp.QuoteResponse.Result) == 0 || resp.QuoteResponse.Result[0].RegularMarketPrice == nil {
		return domain.Quote{}, fmt.Errorf("rapidapi: quote %s: empty result: %w", symbol, domain.ErrUpstreamUnavailable)
	}

	r := resp.QuoteResponse.Result[0]
	name := r.ShortName
	if name == "" {
		name = r.LongName
	}
	q := domain.Quote{
		Symbol:        symbol,
		DisplayName:   name,
		Price:         null.FloatFromPtr(r.RegularMarketPrice),
		PreviousClose: null.FloatFromPtr(r.RegularMarketPreviousClose),
		Open:          null.FloatFromPtr(r.RegularMarketOpen),
		High:          null.FloatFromPtr(r.RegularMarketDayHigh),
		Low:           null.FloatFromPtr(r.RegularMarketDayLow),
		Volume:        null.IntFromPtr(r.RegularMarketVolume),
		Currency:      r.Currency,
		Source:        sourceName,
		AsOf:          time.Now().UTC(),
	}
	if r.RegularMarketTime != 0 {
		q.AsOf = time.Unix(r.RegularMarketTime, 0).UTC()
	}
	return q, nil
}
