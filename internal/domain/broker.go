package domain

import "time"

// BrokerSession is the OAuth access token obtained from the broker together
// with the instant it was issued.
type BrokerSession struct {
	AccessToken string    `json:"access_token"`
	CreatedAt   time.Time `json:"created_at"`
}

// Expired reports whether the session is at or beyond ttl at now.
func (s BrokerSession) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) >= ttl
}

// SessionState is the lifecycle state of the broker session.
type SessionState string

const (
	SessionUnauthenticated SessionState = "unauthenticated"
	SessionPendingCallback SessionState = "pending_callback"
	SessionAuthenticated   SessionState = "authenticated"
	SessionExpired         SessionState = "expired"
	SessionLoggedOut       SessionState = "logged_out"
)
