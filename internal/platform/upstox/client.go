// Package upstox is the REST client for the Upstox broker API: the OAuth
// authorization-code flow plus market quotes and historical candles.
package upstox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/platform/httpx"
)

// DefaultBaseURL is the v2 API root.
const DefaultBaseURL = "https://api.upstox.com/v2"

const sourceName = "upstox"

// Config holds the OAuth application registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BaseURL      string
}

// Client talks to the Upstox v2 API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates an Upstox client. An empty BaseURL selects
// DefaultBaseURL.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = httpx.New(0)
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// LoginURL is the authorization dialog the user must visit.
func (c *Client) LoginURL() string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", c.cfg.ClientID)
	params.Set("redirect_uri", c.cfg.RedirectURI)
	return c.cfg.BaseURL + "/login/authorization/dialog?" + params.Encode()
}

// Token is the subset of the token exchange response we keep.
type Token struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
}

// ExchangeCode trades an authorization code for an access token. Any
// rejection by the broker is reported as domain.ErrAuthRequired.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Token, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/login/authorization/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("upstox: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, err := httpx.Do(c.httpClient, sourceName, req)
	if err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) {
			return Token{}, fmt.Errorf("upstox: token exchange: HTTP %d: %w", se.Status, domain.ErrAuthRequired)
		}
		return Token{}, fmt.Errorf("upstox: token exchange: %w", err)
	}

	var tok Token
	if err := json.Unmarshal(body, &tok); err != nil {
		return Token{}, fmt.Errorf("upstox: decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return Token{}, fmt.Errorf("upstox: token exchange: no access token: %w", domain.ErrAuthRequired)
	}
	return tok, nil
}

// Quotes fetches full market quotes for the given symbols in one call. When
// the full-quote endpoint fails for any reason other than a rejected token,
// the last-traded-price endpoint is tried instead and yields price-only
// quotes. Symbols the broker does not return are absent from the result.
func (c *Client) Quotes(ctx context.Context, token string, symbols []domain.TickerSymbol) ([]domain.Quote, error) {
	keys := make([]string, 0, len(symbols))
	requested := make([]domain.TickerSymbol, 0, len(symbols))
	bySym := make(map[domain.TickerSymbol]string, len(symbols))
	for _, s := range symbols {
		k, err := InstrumentKey(s)
		if err != nil {
			continue
		}
		if _, dup := bySym[s]; dup {
			continue
		}
		keys = append(keys, k)
		requested = append(requested, s)
		bySym[s] = k
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("upstox: quotes: no supported symbols: %w", domain.ErrNotSupported)
	}

	params := url.Values{}
	params.Set("instrument_key", strings.Join(keys, ","))
	query := params.Encode()

	var resp quotesResponse
	err := c.get(ctx, token, "/market-quote/quotes?"+query, &resp)
	if err != nil {
		if errors.Is(err, domain.ErrAuthRequired) {
			return nil, fmt.Errorf("upstox: quotes: %w", err)
		}
		var ltp quotesResponse
		if ltpErr := c.get(ctx, token, "/market-quote/ltp?"+query, &ltp); ltpErr != nil {
			return nil, fmt.Errorf("upstox: quotes: %w (ltp fallback: %w)", err, ltpErr)
		}
		resp = ltp
	}

	now := time.Now().UTC()
	out := make([]domain.Quote, 0, len(resp.Data))
	for _, sym := range requested {
		d, ok := resp.lookup(sym, bySym[sym])
		if !ok || d.LastPrice == nil {
			continue
		}
		out = append(out, d.toQuote(sym, now))
	}
	return out, nil
}

// Candles fetches historical bars. unit is one of 1minute, 30minute, day,
// week or month. Bars are returned oldest first.
func (c *Client) Candles(ctx context.Context, token string, symbol domain.TickerSymbol, unit string, from, to time.Time) ([]domain.Candle, error) {
	key, err := InstrumentKey(symbol)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/historical-candle/%s/%s/%s/%s",
		url.PathEscape(key), unit, to.Format(time.DateOnly), from.Format(time.DateOnly))

	var resp candlesResponse
	if err := c.get(ctx, token, path, &resp); err != nil {
		return nil, fmt.Errorf("upstox: candles %s: %w", symbol, err)
	}

	out := make([]domain.Candle, 0, len(resp.Data.Candles))
	for _, row := range resp.Data.Candles {
		cd, ok := row.toCandle()
		if ok {
			out = append(out, cd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (c *Client) get(ctx context.Context, token, path string, out any) error {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	err := httpx.GetJSON(ctx, c.httpClient, sourceName, c.cfg.BaseURL+path, h, out)
	var se *httpx.StatusError
	if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}
	return err
}

type quotesResponse struct {
	Status string               `json:"status"`
	Data   map[string]quoteData `json:"data"`
}

// lookup finds the entry for sym, matching the echoed instrument token first
// and then every key form the broker uses.
func (r quotesResponse) lookup(sym domain.TickerSymbol, instrumentKey string) (quoteData, bool) {
	for _, d := range r.Data {
		if d.InstrumentToken != "" && d.InstrumentToken == instrumentKey {
			return d, true
		}
	}
	for _, k := range responseKeys(sym, instrumentKey) {
		if d, ok := r.Data[k]; ok {
			return d, true
		}
	}
	return quoteData{}, false
}

type quoteData struct {
	InstrumentToken string   `json:"instrument_token"`
	LastPrice       *float64 `json:"last_price"`
	NetChange       *float64 `json:"net_change"`
	Volume          *int64   `json:"volume"`
	OHLC            struct {
		Open  *float64 `json:"open"`
		High  *float64 `json:"high"`
		Low   *float64 `json:"low"`
		Close *float64 `json:"close"`
	} `json:"ohlc"`
	Timestamp string `json:"timestamp"`
}

func (d quoteData) toQuote(sym domain.TickerSymbol, now time.Time) domain.Quote {
	q := domain.Quote{
		Symbol:   sym,
		Price:    null.FloatFromPtr(d.LastPrice),
		Open:     null.FloatFromPtr(d.OHLC.Open),
		High:     null.FloatFromPtr(d.OHLC.High),
		Low:      null.FloatFromPtr(d.OHLC.Low),
		Volume:   null.IntFromPtr(d.Volume),
		Currency: "INR",
		Source:   sourceName,
		AsOf:     now,
	}
	if d.NetChange != nil && d.LastPrice != nil {
		q.PreviousClose = null.FloatFrom(*d.LastPrice - *d.NetChange)
	}
	if ts, err := time.Parse(time.RFC3339, d.Timestamp); err == nil {
		q.AsOf = ts.UTC()
	}
	return q
}

type candlesResponse struct {
	Status string `json:"status"`
	Data   struct {
		Candles []candleRow `json:"candles"`
	} `json:"data"`
}

// candleRow is [timestamp, open, high, low, close, volume, open_interest].
type candleRow []any

func (r candleRow) toCandle() (domain.Candle, bool) {
	if len(r) < 5 {
		return domain.Candle{}, false
	}
	tsStr, ok := r[0].(string)
	if !ok {
		return domain.Candle{}, false
	}
	ts, err := time.Parse(time.RFC3339, tsStr)
	if err != nil {
		return domain.Candle{}, false
	}
	num := func(i int) float64 {
		if i < len(r) {
			if f, ok := r[i].(float64); ok {
				return f
			}
		}
		return 0
	}
	return domain.Candle{
		Date:   ts.UTC(),
		Open:   num(1),
		High:   num(2),
		Low:    num(3),
		Close:  num(4),
		Volume: int64(num(5)),
	}, true
}
