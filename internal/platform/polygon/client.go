// Package polygon serves US equities from Polygon.io daily aggregates.
package polygon

import (
	"context"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/Sarish05/AIvestor/internal/domain"
)

const sourceName = "polygon"

// aggsAPI is the part of the Polygon REST client used here.
type aggsAPI interface {
	PreviousClose(ctx context.Context, ticker string) ([]models.Agg, error)
	Aggs(ctx context.Context, ticker string, span models.Timespan, multiplier int, from, to time.Time) ([]models.Agg, error)
}

type restAPI struct {
	c *polygon.Client
}

func (r restAPI) PreviousClose(ctx context.Context, ticker string) ([]models.Agg, error) {
	params := models.GetPreviousCloseAggParams{Ticker: ticker}.WithAdjusted(true)
	res, err := r.c.GetPreviousCloseAgg(ctx, params)
	if err != nil {
		return nil, err
	}
	return res.Results, nil
}

func (r restAPI) Aggs(ctx context.Context, ticker string, span models.Timespan, multiplier int, from, to time.Time) ([]models.Agg, error) {
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   span,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithAdjusted(true).WithOrder(models.Asc)
	it := r.c.ListAggs(ctx, params)
	var out []models.Agg
	for it.Next() {
		out = append(out, it.Item())
	}
	return out, it.Err()
}

// Client implements domain.QuoteSource and domain.HistorySource for US
// symbols. Indian and index symbols are rejected with ErrNotSupported.
type Client struct {
	api aggsAPI
	now domain.Clock
}

// NewClient creates a Polygon source for the given API key.
func NewClient(apiKey string) *Client {
	return newClient(restAPI{c: polygon.New(apiKey)})
}

func newClient(api aggsAPI) *Client {
	return &Client{api: api, now: time.Now}
}

// Name implements domain.QuoteSource.
func (c *Client) Name() string { return sourceName }

func supported(s domain.TickerSymbol) error {
	if s.Exchange() != "US" {
		return fmt.Errorf("polygon: %s: %w", s, domain.ErrNotSupported)
	}
	return nil
}

// Quote implements domain.QuoteSource from the two most recent daily bars,
// falling back to the previous-close endpoint.
func (c *Client) Quote(ctx context.Context, symbol domain.TickerSymbol) (domain.Quote, error) {
	if err := supported(symbol); err != nil {
		return domain.Quote{}, err
	}
	now := c.now()
	bars, err := c.api.Aggs(ctx, symbol.String(), models.Day, 1, now.AddDate(0, 0, -10), now)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("polygon: quote %s: %w: %w", symbol, domain.ErrUpstreamUnavailable, err)
	}
	if len(bars) == 0 {
		bars, err = c.api.PreviousClose(ctx, symbol.String())
		if err != nil {
			return domain.Quote{}, fmt.Errorf("polygon: previous close %s: %w: %w", symbol, domain.ErrUpstreamUnavailable, err)
		}
	}
	if len(bars) == 0 {
		return domain.Quote{}, fmt.Errorf("polygon: quote %s: no aggregates: %w", symbol, domain.ErrUpstreamUnavailable)
	}

	last := bars[len(bars)-1]
	q := domain.Quote{
		Symbol:   symbol,
		Price:    null.FloatFrom(last.Close),
		Open:     null.FloatFrom(last.Open),
		High:     null.FloatFrom(last.High),
		Low:      null.FloatFrom(last.Low),
		Volume:   null.IntFrom(int64(last.Volume)),
		Currency: "USD",
		Source:   sourceName,
		AsOf:     time.Time(last.Timestamp).UTC(),
	}
	if len(bars) > 1 {
		q.PreviousClose = null.FloatFrom(bars[len(bars)-2].Close)
	}
	return q, nil
}

// History implements domain.HistorySource.
func (c *Client) History(ctx context.Context, symbol domain.TickerSymbol, r domain.HistoryRange) ([]domain.Candle, error) {
	if err := supported(symbol); err != nil {
		return nil, err
	}
	span, mult, err := timespan(r.Interval)
	if err != nil {
		return nil, err
	}
	now := c.now()
	bars, err := c.api.Aggs(ctx, symbol.String(), span, mult, r.Start(now), now)
	if err != nil {
		return nil, fmt.Errorf("polygon: history %s: %w: %w", symbol, domain.ErrUpstreamUnavailable, err)
	}
	out := make([]domain.Candle, 0, len(bars))
	for _, b := range bars {
		out = append(out, domain.Candle{
			Date:   time.Time(b.Timestamp).UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return out, nil
}

func timespan(interval string) (models.Timespan, int, error) {
	switch interval {
	case "1m":
		return models.Minute, 1, nil
	case "2m":
		return models.Minute, 2, nil
	case "5m":
		return models.Minute, 5, nil
	case "15m":
		return models.Minute, 15, nil
	case "30m":
		return models.Minute, 30, nil
	case "60m", "1h":
		return models.Hour, 1, nil
	case "90m":
		return models.Minute, 90, nil
	case "1d":
		return models.Day, 1, nil
	case "5d":
		return models.Day, 5, nil
	case "1wk":
		return models.Week, 1, nil
	case "1mo":
		return models.Month, 1, nil
	case "3mo":
		return models.Quarter, 1, nil
	default:
		return "", 0, fmt.Errorf("polygon: interval %q: %w", interval, domain.ErrNotSupported)
	}
}
