package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// StatusSources reports the live state the status endpoint exposes. Any
// field may be nil.
type StatusSources struct {
	Providers    func() []string
	BrokerState  func(ctx context.Context) domain.SessionState
	Clients      func() int
	CacheUpdated func(ctx context.Context) time.Time
}

// StatusHandler serves the backend status (mode, providers, broker session)
// for the dashboard.
type StatusHandler struct {
	mode    string
	started time.Time
	src     StatusSources
	now     func() time.Time
}

// NewStatusHandler creates a StatusHandler for the given run mode.
func NewStatusHandler(mode string, started time.Time, src StatusSources) *StatusHandler {
	return &StatusHandler{mode: mode, started: started, src: src, now: time.Now}
}

// GetStatus responds with the current backend mode and runtime state.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"mode":           h.mode,
		"uptime_seconds": int64(h.now().Sub(h.started).Seconds()),
	}
	if h.src.Providers != nil {
		body["providers"] = h.src.Providers()
	}
	if h.src.BrokerState != nil {
		body["broker_session"] = h.src.BrokerState(r.Context())
	}
	if h.src.Clients != nil {
		body["ws_clients"] = h.src.Clients()
	}
	if h.src.CacheUpdated != nil {
		if t := h.src.CacheUpdated(r.Context()); !t.IsZero() {
			body["cache_updated"] = t.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, body)
}
