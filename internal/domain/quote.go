package domain

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"
)

// Quote is a point-in-time price snapshot for one instrument. Numeric fields
// the upstream did not supply are left invalid and serialize as null.
type Quote struct {
	Symbol        TickerSymbol `json:"symbol"`
	DisplayName   string       `json:"name"`
	Price         null.Float   `json:"price"`
	PreviousClose null.Float   `json:"previousClose"`
	Change        null.Float   `json:"change"`
	ChangePercent null.Float   `json:"changePercent"`
	Open          null.Float   `json:"open"`
	High          null.Float   `json:"high"`
	Low           null.Float   `json:"low"`
	Volume        null.Int     `json:"volume"`
	Currency      string       `json:"currency"`
	AsOf          time.Time    `json:"timestamp"`
	Source        string       `json:"source"`
}

// CurrencySymbol maps an ISO code to the sign used in rendered prices.
func CurrencySymbol(code string) string {
	switch code {
	case "INR", "":
		return "₹"
	case "USD":
		return "$"
	default:
		return code + " "
	}
}

// FormattedPrice renders the price with its currency sign, e.g. "₹2470.75".
// An unavailable price renders as "N/A".
func (q Quote) FormattedPrice() string {
	if !q.Price.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%s%.2f", CurrencySymbol(q.Currency), q.Price.Float64)
}

// Label is the human name of the instrument, falling back to the symbol.
func (q Quote) Label() string {
	if q.DisplayName != "" {
		return q.DisplayName
	}
	return q.Symbol.Base()
}

// Candle is one OHLCV bar.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

var (
	historyPeriods = map[string]bool{
		"1d": true, "5d": true, "1mo": true, "3mo": true,
		"6mo": true, "1y": true, "5y": true, "max": true,
	}
	historyIntervals = map[string]bool{
		"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true,
		"90m": true, "1h": true, "1d": true, "5d": true, "1wk": true, "1mo": true, "3mo": true,
	}
)

const (
	DefaultHistoryPeriod   = "1mo"
	DefaultHistoryInterval = "1d"
)

// HistoryRange selects the span and bar size of a history request.
type HistoryRange struct {
	Period   string
	Interval string
}

// NormalizeHistoryRange replaces values outside the allow-lists with the
// defaults instead of rejecting the request.
func NormalizeHistoryRange(period, interval string) HistoryRange {
	r := HistoryRange{Period: period, Interval: interval}
	if !historyPeriods[r.Period] {
		r.Period = DefaultHistoryPeriod
	}
	if !historyIntervals[r.Interval] {
		r.Interval = DefaultHistoryInterval
	}
	return r
}

// Start returns the earliest instant covered by the period, counted back
// from now. "max" reaches back twenty years.
func (r HistoryRange) Start(now time.Time) time.Time {
	switch r.Period {
	case "1d":
		return now.AddDate(0, 0, -1)
	case "5d":
		return now.AddDate(0, 0, -5)
	case "3mo":
		return now.AddDate(0, -3, 0)
	case "6mo":
		return now.AddDate(0, -6, 0)
	case "1y":
		return now.AddDate(-1, 0, 0)
	case "5y":
		return now.AddDate(-5, 0, 0)
	case "max":
		return now.AddDate(-20, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}
