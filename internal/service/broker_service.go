package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/notify"
	"github.com/Sarish05/AIvestor/internal/platform/upstox"
	"github.com/Sarish05/AIvestor/internal/symbol"
)

// DefaultSessionTTL is how long a broker access token is trusted.
const DefaultSessionTTL = time.Hour

// BrokerServiceConfig wires a BrokerService.
type BrokerServiceConfig struct {
	Client   *upstox.Client
	Store    domain.SessionStore
	Cache    domain.MarketDataCache
	Resolver *symbol.Resolver
	TTL      time.Duration
	Alerts   Alerter
	Logger   *slog.Logger
	Clock    domain.Clock
}

// BrokerService owns the broker OAuth session and the broker-backed market
// data endpoints. The session lives in the injected store; expiry is checked
// lazily on every read.
type BrokerService struct {
	client   *upstox.Client
	store    domain.SessionStore
	cache    domain.MarketDataCache
	resolver *symbol.Resolver
	ttl      time.Duration
	alerts   Alerter
	logger   *slog.Logger
	now      domain.Clock

	mu     sync.Mutex
	marker domain.SessionState // last transition seen while no session is stored
}

// NewBrokerService creates a BrokerService.
func NewBrokerService(cfg BrokerServiceConfig) *BrokerService {
	s := &BrokerService{
		client:   cfg.Client,
		store:    cfg.Store,
		cache:    cfg.Cache,
		resolver: cfg.Resolver,
		ttl:      cfg.TTL,
		alerts:   cfg.Alerts,
		logger:   cfg.Logger,
		now:      cfg.Clock,
		marker:   domain.SessionUnauthenticated,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
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
	s.logger = s.logger.With(slog.String("component", "broker_service"))
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *BrokerService) setMarker(st domain.SessionState) {
	s.mu.Lock()
	s.marker = st
	s.mu.Unlock()
}

// LoginURL returns the broker authorization URL and moves the session to
// pending callback.
func (s *BrokerService) LoginURL() string {
	s.setMarker(domain.SessionPendingCallback)
	return s.client.LoginURL()
}

// Callback exchanges the authorization code and stores the new session,
// replacing any previous one. A failed exchange leaves the session state
// untouched, so a pending login stays pending.
func (s *BrokerService) Callback(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("broker_service: callback: authorization code missing: %w", domain.ErrValidation)
	}
	tok, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("broker_service: callback: %w", err)
	}
	sess := domain.BrokerSession{AccessToken: tok.AccessToken, CreatedAt: s.now()}
	if err := s.store.Put(ctx, sess); err != nil {
		return fmt.Errorf("broker_service: store session: %w", err)
	}
	s.logger.InfoContext(ctx, "broker session established", slog.String("user_id", tok.UserID))
	if err := s.alerts.Notify(ctx, notify.EventBrokerLogin, "Broker login", "Upstox session established"); err != nil {
		s.logger.WarnContext(ctx, "alert failed", slog.String("error", err.Error()))
	}
	return nil
}

// session returns the live session, deleting it if it has expired.
func (s *BrokerService) session(ctx context.Context) (domain.BrokerSession, error) {
	sess, err := s.store.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.BrokerSession{}, fmt.Errorf("broker_service: no session: %w", domain.ErrAuthRequired)
	}
	if err != nil {
		return domain.BrokerSession{}, fmt.Errorf("broker_service: load session: %w", err)
	}
	if sess.Expired(s.now(), s.ttl) {
		if err := s.store.Delete(ctx); err != nil {
			s.logger.WarnContext(ctx, "delete expired session failed", slog.String("error", err.Error()))
		}
		s.setMarker(domain.SessionExpired)
		s.logger.InfoContext(ctx, "broker session expired", slog.Time("created_at", sess.CreatedAt))
		return domain.BrokerSession{}, fmt.Errorf("broker_service: session expired: %w", domain.ErrAuthRequired)
	}
	return sess, nil
}

// CheckAuth reports whether a non-expired session exists.
func (s *BrokerService) CheckAuth(ctx context.Context) (bool, error) {
	_, err := s.session(ctx)
	if errors.Is(err, domain.ErrAuthRequired) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AccessToken implements domain.TokenProvider.
func (s *BrokerService) AccessToken(ctx context.Context) (string, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}

// Logout clears the session whether or not one exists.
func (s *BrokerService) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx); err != nil {
		return fmt.Errorf("broker_service: logout: %w", err)
	}
	s.setMarker(domain.SessionLoggedOut)
	return nil
}

// State reports the session lifecycle state.
func (s *BrokerService) State(ctx context.Context) domain.SessionState {
	ok, err := s.CheckAuth(ctx)
	if err == nil && ok {
		return domain.SessionAuthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marker
}

// MarketData returns broker quotes for syms. Fresh cache entries are served
// as is; the rest are fetched from the broker in one call and merged back.
func (s *BrokerService) MarketData(ctx context.Context, syms []domain.TickerSymbol) ([]domain.Quote, error) {
	token, err := s.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	got := make(map[domain.TickerSymbol]domain.Quote, len(syms))
	var missing []domain.TickerSymbol
	for _, sym := range syms {
		if s.cache != nil {
			if q, ok, err := s.cache.Lookup(ctx, sym, now); err == nil && ok {
				got[sym] = q
				continue
			}
		}
		missing = append(missing, sym)
	}

	if len(missing) > 0 {
		live, err := s.client.Quotes(ctx, token, missing)
		if err != nil {
			return nil, fmt.Errorf("broker_service: market data: %w", err)
		}
		for i, q := range live {
			if q.DisplayName == "" {
				q.DisplayName = s.resolver.Name(q.Symbol)
			}
			live[i] = deriveQuote(q)
			got[q.Symbol] = live[i]
		}
		if s.cache != nil && len(live) > 0 {
			if err := s.cache.Merge(ctx, live, s.now()); err != nil {
				s.logger.WarnContext(ctx, "cache merge failed", slog.String("error", err.Error()))
			}
		}
	}

	out := make([]domain.Quote, 0, len(got))
	for _, sym := range syms {
		if q, ok := got[sym]; ok {
			out = append(out, q)
			delete(got, sym)
		}
	}
	return out, nil
}

// brokerWindow maps a chart window name to a candle unit and start date.
func brokerWindow(window string, to time.Time) (string, time.Time) {
	switch strings.ToUpper(window) {
	case "1D":
		return "day", to.AddDate(0, 0, -1)
	case "5D":
		return "day", to.AddDate(0, 0, -5)
	case "6M":
		return "day", to.AddDate(0, -6, 0)
	case "1Y":
		return "month", to.AddDate(-1, 0, 0)
	default:
		return "day", to.AddDate(0, 0, -30)
	}
}

// HistoricalData returns broker candles for a chart window such as 1D, 5D,
// 30D, 6M or 1Y. Zero from or to are derived from the window.
func (s *BrokerService) HistoricalData(ctx context.Context, sym domain.TickerSymbol, window string, from, to time.Time) ([]domain.Candle, error) {
	token, err := s.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = s.now()
	}
	unit, start := brokerWindow(window, to)
	if from.IsZero() {
		from = start
	}
	candles, err := s.client.Candles(ctx, token, sym, unit, from, to)
	if err != nil {
		return nil, fmt.Errorf("broker_service: historical data: %w", err)
	}
	return candles, nil
}

var _ domain.TokenProvider = (*BrokerService)(nil)
