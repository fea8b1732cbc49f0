package service

import (
	"context"
	"sync"
	"time"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// gate spaces successive calls to one upstream by at least interval.
// Each caller reserves the next free slot under the lock and then waits for
// it, so concurrent callers queue instead of firing together.
type gate struct {
	interval time.Duration
	mu       sync.Mutex
	next     time.Time
}

func (g *gate) wait(ctx context.Context) error {
	if g.interval <= 0 {
		return nil
	}
	g.mu.Lock()
	now := time.Now()
	slot := g.next
	if slot.Before(now) {
		slot = now
	}
	g.next = slot.Add(g.interval)
	g.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// gates hands out one gate per provider name so the quote and history
// paths of the same provider share a schedule.
type gates struct {
	interval time.Duration
	mu       sync.Mutex
	byName   map[string]*gate
}

func newGates(interval time.Duration) *gates {
	return &gates{interval: interval, byName: make(map[string]*gate)}
}

func (g *gates) get(name string) *gate {
	g.mu.Lock()
	defer g.mu.Unlock()
	gt, ok := g.byName[name]
	if !ok {
		gt = &gate{interval: g.interval}
		g.byName[name] = gt
	}
	return gt
}

// pacedQuoteSource wraps a QuoteSource with a courtesy gate.
type pacedQuoteSource struct {
	domain.QuoteSource
	gate *gate
}

func (p pacedQuoteSource) Quote(ctx context.Context, symbol domain.TickerSymbol) (domain.Quote, error) {
	if err := p.gate.wait(ctx); err != nil {
		return domain.Quote{}, err
	}
	return p.QuoteSource.Quote(ctx, symbol)
}

// pacedHistorySource wraps a HistorySource with a courtesy gate.
type pacedHistorySource struct {
	domain.HistorySource
	gate *gate
}

func (p pacedHistorySource) History(ctx context.Context, symbol domain.TickerSymbol, r domain.HistoryRange) ([]domain.Candle, error) {
	if err := p.gate.wait(ctx); err != nil {
		return nil, err
	}
	return p.HistorySource.History(ctx, symbol, r)
}
