package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Sarish05/AIvestor/internal/cache/memory"
	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/notify"
	"github.com/Sarish05/AIvestor/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) domain.Clock {
	return func() time.Time { return t }
}

var t0 = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

type recordingAlerter struct {
	events []string
}

func (r *recordingAlerter) Notify(_ context.Context, event, _, _ string) error {
	r.events = append(r.events, event)
	return nil
}

func mockSource(ctrl *gomock.Controller, name string) *MockQuoteSource {
	m := NewMockQuoteSource(ctrl)
	m.EXPECT().Name().Return(name).AnyTimes()
	return m
}

func TestGetQuoteFallsBackToSecondSource(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	primary := mockSource(ctrl, "primary")
	secondary := mockSource(ctrl, "secondary")

	primary.EXPECT().Quote(gomock.Any(), domain.TickerSymbol("TCS.NS")).
		Return(domain.Quote{}, errors.New("connection refused")).Times(1)
	secondary.EXPECT().Quote(gomock.Any(), domain.TickerSymbol("TCS.NS")).
		Return(domain.Quote{Price: null.FloatFrom(4100), PreviousClose: null.FloatFrom(4000)}, nil).Times(1)

	svc := service.NewQuoteService(service.QuoteServiceConfig{
		Sources: []domain.QuoteSource{primary, secondary},
		Logger:  discardLogger(),
		Clock:   fixedClock(t0),
	})

	q, err := svc.GetQuote(t.Context(), "TCS.NS")
	require.NoError(t, err)
	assert.Equal(t, "secondary", q.Source)
	assert.Equal(t, domain.TickerSymbol("TCS.NS"), q.Symbol)
	assert.Equal(t, "INR", q.Currency)
	assert.Equal(t, "TCS", q.DisplayName)
	assert.True(t, q.AsOf.Equal(t0))
}

func TestGetQuoteRelianceDerivation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mockSource(ctrl, "stub")
	src.EXPECT().Quote(gomock.Any(), domain.TickerSymbol("RELIANCE.NS")).Return(domain.Quote{
		Price:         null.FloatFrom(2470.75),
		PreviousClose: null.FloatFrom(2465.00),
		// Upstream change values are never trusted.
		Change:        null.FloatFrom(99),
		ChangePercent: null.FloatFrom(99),
	}, nil)

	svc := service.NewQuoteService(service.QuoteServiceConfig{
		Sources: []domain.QuoteSource{src},
		Logger:  discardLogger(),
	})

	q, err := svc.GetQuote(t.Context(), "RELIANCE.NS")
	require.NoError(t, err)
	assert.InDelta(t, 5.75, q.Change.Float64, 1e-9)
	assert.InDelta(t, 0.233, q.ChangePercent.Float64, 0.001)
	assert.Equal(t, "Reliance", q.DisplayName)
	assert.Equal(t, "₹2470.75", q.FormattedPrice())
}

func TestGetQuoteChangeInvariant(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		price    null.Float
		prev     null.Float
		wantPct  bool
		wantDiff bool
	}{
		{"normal", null.FloatFrom(101.37), null.FloatFrom(99.11), true, true},
		{"zero previous close", null.FloatFrom(10), null.FloatFrom(0), false, true},
		{"no previous close", null.FloatFrom(10), null.Float{}, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			src := mockSource(ctrl, "stub")
			src.EXPECT().Quote(gomock.Any(), gomock.Any()).
				Return(domain.Quote{Price: tc.price, PreviousClose: tc.prev, ChangePercent: null.FloatFrom(1)}, nil)

			svc := service.NewQuoteService(service.QuoteServiceConfig{
				Sources: []domain.QuoteSource{src},
				Logger:  discardLogger(),
			})
			q, err := svc.GetQuote(t.Context(), "X.NS")
			require.NoError(t, err)

			assert.Equal(t, tc.wantDiff, q.Change.Valid)
			assert.Equal(t, tc.wantPct, q.ChangePercent.Valid)
			if q.Change.Valid {
				assert.InDelta(t, q.Price.Float64-q.PreviousClose.Float64, q.Change.Float64, 0.01)
			}
			if q.ChangePercent.Valid {
				assert.InDelta(t, q.Change.Float64/q.PreviousClose.Float64*100, q.ChangePercent.Float64, 0.001)
			}
		})
	}
}

func TestGetQuoteSkipsPricelessResult(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	empty := mockSource(ctrl, "empty")
	good := mockSource(ctrl, "good")
	empty.EXPECT().Quote(gomock.Any(), gomock.Any()).Return(domain.Quote{}, nil)
	good.EXPECT().Quote(gomock.Any(), gomock.Any()).Return(domain.Quote{Price: null.FloatFrom(1)}, nil)

	svc := service.NewQuoteService(service.QuoteServiceConfig{
		Sources: []domain.QuoteSource{empty, good},
		Logger:  discardLogger(),
	})
	q, err := svc.GetQuote(t.Context(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "good", q.Source)
	assert.Equal(t, "USD", q.Currency)
}

func TestGetQuoteExhaustion(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	a := mockSource(ctrl, "a")
	b := mockSource(ctrl, "b")
	a.EXPECT().Quote(gomock.Any(), gomock.Any()).Return(domain.Quote{}, domain.ErrUpstreamUnavailable).Times(1)
	b.EXPECT().Quote(gomock.Any(), gomock.Any()).Return(domain.Quote{}, domain.ErrNotSupported).Times(1)

	alerts := &recordingAlerter{}
	svc := service.NewQuoteService(service.QuoteServiceConfig{
		Sources: []domain.QuoteSource{a, b},
		Alerts:  alerts,
		Logger:  discardLogger(),
	})

	_, err := svc.GetQuote(t.Context(), "NOPE.NS")
	require.ErrorIs(t, err, domain.ErrSymbolNotFound)
	assert.Contains(t, err.Error(), "NOPE.NS")
	assert.Equal(t, []string{notify.EventProviderExhausted}, alerts.events)
}

func TestGetQuoteServesFreshCache(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mockSource(ctrl, "stub")
	src.EXPECT().Quote(gomock.Any(), gomock.Any()).
		Return(domain.Quote{Price: null.FloatFrom(10), PreviousClose: null.FloatFrom(9)}, nil).Times(2)

	now := t0
	cache := memory.NewMarketCache(5 * time.Minute)
	svc := service.NewQuoteService(service.QuoteServiceConfig{
		Sources: []domain.QuoteSource{src},
		Cache:   cache,
		Logger:  discardLogger(),
		Clock:   func() time.Time { return now },
	})

	_, err := svc.GetQuote(t.Context(), "ITC.NS")
	require.NoError(t, err)

	now = t0.Add(4 * time.Minute)
	q, err := svc.GetQuote(t.Context(), "ITC.NS")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, q.Price.Float64, 1e-9)

	now = t0.Add(6 * time.Minute)
	_, err = svc.GetQuote(t.Context(), "ITC.NS")
	require.NoError(t, err)
}

func TestGetQuotesIsSubsetOfInput(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mockSource(ctrl, "stub")
	src.EXPECT().Quote(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, sym domain.TickerSymbol) (domain.Quote, error) {
			if sym == "BAD.NS" {
				return domain.Quote{}, domain.ErrUpstreamUnavailable
			}
			return domain.Quote{Price: null.FloatFrom(1)}, nil
		}).AnyTimes()

	svc := service.NewQuoteService(service.QuoteServiceConfig{
		Sources: []domain.QuoteSource{src},
		Logger:  discardLogger(),
	})

	in := []domain.TickerSymbol{"TCS.NS", "BAD.NS", "INFY.NS", "TCS.NS"}
	out := svc.GetQuotes(t.Context(), in)
	require.Len(t, out, 2)
	assert.LessOrEqual(t, len(out), len(in))
	for _, q := range out {
		assert.Contains(t, in, q.Symbol)
	}
	assert.Equal(t, domain.TickerSymbol("TCS.NS"), out[0].Symbol)
	assert.Equal(t, domain.TickerSymbol("INFY.NS"), out[1].Symbol)
}

func TestLookupCanonicalizesAlias(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mockSource(ctrl, "stub")
	src.EXPECT().Quote(gomock.Any(), domain.TickerSymbol("INFY.NS")).Return(domain.Quote{Price: null.FloatFrom(1500)}, nil)

	svc := service.NewQuoteService(service.QuoteServiceConfig{
		Sources: []domain.QuoteSource{src},
		Logger:  discardLogger(),
	})
	q, err := svc.Lookup(t.Context(), "infosys")
	require.NoError(t, err)
	assert.Equal(t, domain.TickerSymbol("INFY.NS"), q.Symbol)

	_, err = svc.Lookup(t.Context(), "  ")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestLookupManyReturnsCanonicalSymbols(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mockSource(ctrl, "stub")
	src.EXPECT().Quote(gomock.Any(), domain.TickerSymbol("RELIANCE.NS")).Return(domain.Quote{Price: null.FloatFrom(2470.75)}, nil)
	src.EXPECT().Quote(gomock.Any(), domain.TickerSymbol("TCS.BO")).Return(domain.Quote{Price: null.FloatFrom(4100)}, nil)

	svc := service.NewQuoteService(service.QuoteServiceConfig{
		Sources: []domain.QuoteSource{src},
		Logger:  discardLogger(),
	})
	out := svc.LookupMany(t.Context(), []string{"reliance", " ", "tcs.bo"})
	require.Len(t, out, 2)
	assert.Equal(t, domain.TickerSymbol("RELIANCE.NS"), out[0].Symbol)
	assert.Equal(t, domain.TickerSymbol("TCS.BO"), out[1].Symbol)
}

func TestTopStocksSortedByPrice(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mockSource(ctrl, "stub")
	prices := map[domain.TickerSymbol]float64{"TCS.NS": 4000, "MARUTI.NS": 12000, "ITC.NS": 450}
	src.EXPECT().Quote(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, sym domain.TickerSymbol) (domain.Quote, error) {
			p, ok := prices[sym]
			if !ok {
				return domain.Quote{}, domain.ErrUpstreamUnavailable
			}
			return domain.Quote{Price: null.FloatFrom(p)}, nil
		}).AnyTimes()

	svc := service.NewQuoteService(service.QuoteServiceConfig{
		Sources: []domain.QuoteSource{src},
		Logger:  discardLogger(),
	})

	out := svc.TopStocks(t.Context())
	require.Len(t, out, 3)
	assert.Equal(t, domain.TickerSymbol("MARUTI.NS"), out[0].Symbol)
	assert.Equal(t, domain.TickerSymbol("TCS.NS"), out[1].Symbol)
	assert.Equal(t, domain.TickerSymbol("ITC.NS"), out[2].Symbol)
}

func TestGetHistoryNormalizesRange(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	failing := NewMockHistorySource(ctrl)
	failing.EXPECT().Name().Return("failing").AnyTimes()
	hist := NewMockHistorySource(ctrl)
	hist.EXPECT().Name().Return("hist").AnyTimes()

	want := domain.HistoryRange{Period: "1mo", Interval: "1d"}
	failing.EXPECT().History(gomock.Any(), domain.TickerSymbol("TCS.NS"), want).Return(nil, domain.ErrUpstreamUnavailable)
	hist.EXPECT().History(gomock.Any(), domain.TickerSymbol("TCS.NS"), want).
		Return([]domain.Candle{{Date: t0, Close: 1}}, nil)

	svc := service.NewQuoteService(service.QuoteServiceConfig{
		History: []domain.HistorySource{failing, hist},
		Logger:  discardLogger(),
	})
	candles, err := svc.GetHistory(t.Context(), "TCS.NS", "10y", "bogus")
	require.NoError(t, err)
	assert.Len(t, candles, 1)
}

func TestGetHistoryEmpty(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	hist := NewMockHistorySource(ctrl)
	hist.EXPECT().Name().Return("hist").AnyTimes()
	hist.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	svc := service.NewQuoteService(service.QuoteServiceConfig{
		History: []domain.HistorySource{hist},
		Logger:  discardLogger(),
	})
	_, err := svc.GetHistory(t.Context(), "TCS.NS", "1y", "1wk")
	require.ErrorIs(t, err, domain.ErrSymbolNotFound)
}

func TestCourtesyDelaySpacesCalls(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mockSource(ctrl, "stub")
	var calls []time.Time
	src.EXPECT().Quote(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.TickerSymbol) (domain.Quote, error) {
			calls = append(calls, time.Now())
			return domain.Quote{Price: null.FloatFrom(1)}, nil
		}).Times(3)

	svc := service.NewQuoteService(service.QuoteServiceConfig{
		Sources:       []domain.QuoteSource{src},
		CourtesyDelay: 30 * time.Millisecond,
		Logger:        discardLogger(),
	})
	out := svc.GetQuotes(t.Context(), []domain.TickerSymbol{"A.NS", "B.NS", "C.NS"})
	require.Len(t, out, 3)
	require.Len(t, calls, 3)
	assert.GreaterOrEqual(t, calls[2].Sub(calls[0]), 55*time.Millisecond)
}
