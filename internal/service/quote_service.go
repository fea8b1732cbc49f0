package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/notify"
	"github.com/Sarish05/AIvestor/internal/symbol"
)

// Alerter receives operational events. *notify.Notifier satisfies it.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

type nopAlerter struct{}

func (nopAlerter) Notify(context.Context, string, string, string) error { return nil }

// TrendingSymbols is the curated list behind the trending snapshot and the
// live feed.
var TrendingSymbols = []domain.TickerSymbol{
	"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS", "INFY.NS", "ICICIBANK.NS",
	"SBIN.NS", "BHARTIARTL.NS", "ITC.NS", "HINDUNILVR.NS", "KOTAKBANK.NS",
	"TATAMOTORS.NS", "MARUTI.NS", "WIPRO.NS", "LT.NS", "AXISBANK.NS",
}

// TopSymbols is the large-cap list behind the top-stocks snapshot.
var TopSymbols = []domain.TickerSymbol{
	"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS", "INFY.NS", "ICICIBANK.NS",
	"HINDUNILVR.NS", "ITC.NS", "SBIN.NS", "BHARTIARTL.NS", "KOTAKBANK.NS",
	"LT.NS", "AXISBANK.NS", "BAJFINANCE.NS", "ASIANPAINT.NS", "MARUTI.NS",
}

// QuoteServiceConfig wires a QuoteService. Sources and History are tried in
// the order given.
type QuoteServiceConfig struct {
	Sources       []domain.QuoteSource
	History       []domain.HistorySource
	Cache         domain.MarketDataCache
	Resolver      *symbol.Resolver
	CourtesyDelay time.Duration
	Alerts        Alerter
	Logger        *slog.Logger
	Clock         domain.Clock
}

// QuoteService is the quote provider chain: it answers from the market data
// cache when fresh and otherwise walks the configured sources until one
// returns a usable quote.
type QuoteService struct {
	sources  []domain.QuoteSource
	history  []domain.HistorySource
	cache    domain.MarketDataCache
	resolver *symbol.Resolver
	alerts   Alerter
	logger   *slog.Logger
	now      domain.Clock
}

// NewQuoteService creates a QuoteService. Every source is wrapped in a
// courtesy gate keyed by its name.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	g := newGates(cfg.CourtesyDelay)
	s := &QuoteService{
		cache:    cfg.Cache,
		resolver: cfg.Resolver,
		alerts:   cfg.Alerts,
		logger:   cfg.Logger,
		now:      cfg.Clock,
	}
	for _, src := range cfg.Sources {
		s.sources = append(s.sources, pacedQuoteSource{QuoteSource: src, gate: g.get(src.Name())})
	}
	for _, src := range cfg.History {
		s.history = append(s.history, pacedHistorySource{HistorySource: src, gate: g.get(src.Name())})
	}
	if s.resolver == nil {
		s.resolver = symbol.New()
	}
	if s.alerts == nil {
		s.alerts = nopAlerter{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With(slog.String("component", "quote_service"))
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SourceNames lists the wired quote sources in chain order.
func (s *QuoteService) SourceNames() []string {
	names := make([]string, len(s.sources))
	for i, src := range s.sources {
		names[i] = src.Name()
	}
	return names
}

// GetQuote returns the quote for one canonical symbol. A fresh cache entry
// is returned without touching any upstream.
func (s *QuoteService) GetQuote(ctx context.Context, sym domain.TickerSymbol) (domain.Quote, error) {
	if s.cache != nil {
		q, ok, err := s.cache.Lookup(ctx, sym, s.now())
		if err != nil {
			s.logger.WarnContext(ctx, "cache lookup failed",
				slog.String("symbol", string(sym)),
				slog.String("error", err.Error()),
			)
		} else if ok {
			return q, nil
		}
	}

	q, err := s.fetch(ctx, sym)
	if err != nil {
		return domain.Quote{}, err
	}

	if s.cache != nil {
		if err := s.cache.Merge(ctx, []domain.Quote{q}, s.now()); err != nil {
			s.logger.WarnContext(ctx, "cache merge failed",
				slog.String("symbol", string(sym)),
				slog.String("error", err.Error()),
			)
		}
	}
	return q, nil
}

// Lookup canonicalizes a user-supplied identifier and returns its quote.
func (s *QuoteService) Lookup(ctx context.Context, raw string) (domain.Quote, error) {
	sym, err := s.resolver.Canonicalize(raw)
	if err != nil {
		return domain.Quote{}, err
	}
	return s.GetQuote(ctx, sym)
}

func (s *QuoteService) fetch(ctx context.Context, sym domain.TickerSymbol) (domain.Quote, error) {
	for _, src := range s.sources {
		q, err := src.Quote(ctx, sym)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Quote{}, fmt.Errorf("quote_service: %s: %w", sym, ctxErr)
		}
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, domain.ErrNotSupported) || errors.Is(err, domain.ErrAuthRequired) {
				level = slog.LevelDebug
			}
			s.logger.Log(ctx, level, "source failed",
				slog.String("source", src.Name()),
				slog.String("symbol", string(sym)),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !q.Price.Valid {
			s.logger.WarnContext(ctx, "source returned no price",
				slog.String("source", src.Name()),
				slog.String("symbol", string(sym)),
			)
			continue
		}
		return s.normalize(q, sym, src.Name()), nil
	}

	msg := fmt.Sprintf("no provider returned a quote for %s (tried %s)", sym, strings.Join(s.SourceNames(), ", "))
	if err := s.alerts.Notify(ctx, notify.EventProviderExhausted, "Quote providers exhausted", msg); err != nil {
		s.logger.WarnContext(ctx, "alert failed", slog.String("error", err.Error()))
	}
	return domain.Quote{}, fmt.Errorf("quote_service: %s: %w", sym, domain.ErrSymbolNotFound)
}

func (s *QuoteService) normalize(q domain.Quote, sym domain.TickerSymbol, source string) domain.Quote {
	q.Symbol = sym
	if q.DisplayName == "" {
		q.DisplayName = s.resolver.Name(sym)
	}
	if q.Currency == "" {
		q.Currency = sym.Currency()
	}
	if q.Source == "" {
		q.Source = source
	}
	if q.AsOf.IsZero() {
		q.AsOf = s.now()
	}
	return deriveQuote(q)
}

// deriveQuote recomputes change and changePercent from price and previous
// close. Upstream values for either are discarded.
func deriveQuote(q domain.Quote) domain.Quote {
	q.Change = null.Float{}
	q.ChangePercent = null.Float{}
	if !q.Price.Valid || !q.PreviousClose.Valid {
		return q
	}
	price := decimal.NewFromFloat(q.Price.Float64)
	prev := decimal.NewFromFloat(q.PreviousClose.Float64)
	change := price.Sub(prev).Round(2)
	q.Change = null.FloatFrom(change.InexactFloat64())
	if !prev.IsZero() {
		pct := change.Div(prev).Mul(decimal.NewFromInt(100)).Round(4)
		q.ChangePercent = null.FloatFrom(pct.InexactFloat64())
	}
	return q
}

// GetQuotes resolves symbols one at a time. Symbols that fail are omitted,
// so the result is always a subset of the input.
func (s *QuoteService) GetQuotes(ctx context.Context, syms []domain.TickerSymbol) []domain.Quote {
	out := make([]domain.Quote, 0, len(syms))
	seen := make(map[domain.TickerSymbol]bool, len(syms))
	for _, sym := range syms {
		if seen[sym] {
			continue
		}
		seen[sym] = true
		if ctx.Err() != nil {
			break
		}
		q, err := s.GetQuote(ctx, sym)
		if err != nil {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Refresh fetches syms from the sources, ignoring the cache, and merges the
// results into the cache in one step.
func (s *QuoteService) Refresh(ctx context.Context, syms []domain.TickerSymbol) []domain.Quote {
	out := make([]domain.Quote, 0, len(syms))
	for _, sym := range syms {
		if ctx.Err() != nil {
			break
		}
		q, err := s.fetch(ctx, sym)
		if err != nil {
			continue
		}
		out = append(out, q)
	}
	if s.cache != nil && len(out) > 0 {
		if err := s.cache.Merge(ctx, out, s.now()); err != nil {
			s.logger.WarnContext(ctx, "cache merge failed", slog.String("error", err.Error()))
		}
	}
	return out
}

// LookupMany canonicalizes each raw identifier and fetches the quotes.
// Identifiers that cannot be canonicalized are skipped. Returned quotes carry
// the canonical symbol ("reliance" comes back as RELIANCE.NS), so the result
// is a subset of the canonicalized input rather than of the raw strings.
func (s *QuoteService) LookupMany(ctx context.Context, raw []string) []domain.Quote {
	syms := make([]domain.TickerSymbol, 0, len(raw))
	for _, r := range raw {
		sym, err := s.resolver.Canonicalize(r)
		if err != nil {
			continue
		}
		syms = append(syms, sym)
	}
	return s.GetQuotes(ctx, syms)
}

// Search returns quotes for every known company whose alias or ticker
// contains query.
func (s *QuoteService) Search(ctx context.Context, query string) []domain.Quote {
	matches := s.resolver.Search(query)
	syms := make([]domain.TickerSymbol, len(matches))
	for i, m := range matches {
		syms[i] = m.Symbol
	}
	return s.GetQuotes(ctx, syms)
}

// Trending returns quotes for the curated trending list.
func (s *QuoteService) Trending(ctx context.Context) []domain.Quote {
	return s.GetQuotes(ctx, TrendingSymbols)
}

// TopStocks returns quotes for the large-cap list, highest price first.
func (s *QuoteService) TopStocks(ctx context.Context) []domain.Quote {
	out := s.GetQuotes(ctx, TopSymbols)
	slices.SortStableFunc(out, func(a, b domain.Quote) int {
		return cmp.Compare(b.Price.Float64, a.Price.Float64)
	})
	return out
}

// GetHistory returns candles for sym. Unknown period or interval values fall
// back to the defaults. The first source with a non-empty answer wins.
func (s *QuoteService) GetHistory(ctx context.Context, sym domain.TickerSymbol, period, interval string) ([]domain.Candle, error) {
	r := domain.NormalizeHistoryRange(period, interval)
	for _, src := range s.history {
		candles, err := src.History(ctx, sym, r)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("quote_service: history %s: %w", sym, ctxErr)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "history source failed",
				slog.String("source", src.Name()),
				slog.String("symbol", string(sym)),
				slog.String("period", r.Period),
				slog.String("interval", r.Interval),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(candles) > 0 {
			return candles, nil
		}
	}
	return nil, fmt.Errorf("quote_service: history %s: %w", sym, domain.ErrSymbolNotFound)
}

// LookupHistory canonicalizes a user-supplied identifier and returns its
// candles.
func (s *QuoteService) LookupHistory(ctx context.Context, raw, period, interval string) ([]domain.Candle, error) {
	sym, err := s.resolver.Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	return s.GetHistory(ctx, sym, period, interval)
}
