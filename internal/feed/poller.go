// Package feed keeps the trending snapshot warm and broadcasts it on the
// signal bus for WebSocket clients.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// QuotesChannel is the bus channel snapshots are published on.
const QuotesChannel = "quotes"

// Refresher fetches fresh quotes for a list of symbols and stores them.
type Refresher interface {
	Refresh(ctx context.Context, syms []domain.TickerSymbol) []domain.Quote
}

// Snapshot is the message published for each poll.
type Snapshot struct {
	Event     string         `json:"event"`
	Quotes    []domain.Quote `json:"quotes"`
	Timestamp time.Time      `json:"timestamp"`
}

// Poller refreshes a fixed symbol list on an interval.
type Poller struct {
	quotes   Refresher
	bus      domain.SignalBus
	symbols  []domain.TickerSymbol
	interval time.Duration
	logger   *slog.Logger
	now      domain.Clock
}

// NewPoller creates a Poller over symbols.
func NewPoller(quotes Refresher, bus domain.SignalBus, symbols []domain.TickerSymbol, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		quotes:   quotes,
		bus:      bus,
		symbols:  symbols,
		interval: interval,
		logger:   logger.With(slog.String("component", "feed_poller")),
		now:      time.Now,
	}
}

// Run polls immediately and then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("feed poller started",
		slog.Int("symbols", len(p.symbols)),
		slog.Duration("interval", p.interval),
	)
	defer p.logger.Info("feed poller stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if err := p.Poll(ctx); err != nil {
			p.logger.WarnContext(ctx, "poll failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll runs one refresh and publishes the snapshot. An empty refresh
// publishes nothing.
func (p *Poller) Poll(ctx context.Context) error {
	quotes := p.quotes.Refresh(ctx, p.symbols)
	if ctx.Err() != nil {
		return nil
	}
	if len(quotes) == 0 {
		return fmt.Errorf("feed: no quotes for %d symbols", len(p.symbols))
	}
	payload, err := json.Marshal(Snapshot{Event: "snapshot", Quotes: quotes, Timestamp: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("feed: marshal snapshot: %w", err)
	}
	if err := p.bus.Publish(ctx, QuotesChannel, payload); err != nil {
		return fmt.Errorf("feed: publish snapshot: %w", err)
	}
	p.logger.DebugContext(ctx, "snapshot published", slog.Int("quotes", len(quotes)))
	return nil
}
