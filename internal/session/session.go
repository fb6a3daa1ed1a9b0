// Package session tracks authenticated sessions with a sliding inactivity
// window. A session expires when no activity arrives within the configured
// timeout; clients poll State to drive their warning and logout timers.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means the session does not exist or has already expired.
var ErrNotFound = errors.New("session not found")

// Session is one authenticated browser session.
type Session struct {
	ID           string    `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists sessions. Implementations: Redis for deployments, memory for
// tests and single-process development.
type Store interface {
	// Create registers a new session expiring after ttl.
	Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (*Session, error)
	// Get returns the session, or ErrNotFound if missing/expired.
	Get(ctx context.Context, id string) (*Session, error)
	// Touch slides the expiry to now+ttl and updates last activity.
	Touch(ctx context.Context, id string, ttl time.Duration) error
	// Delete removes the session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error
	// DeleteByUser removes every session belonging to a user.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// WarningLead returns how long before expiry the client should warn the user:
// five minutes, or 20% of the timeout for short timeouts.
func WarningLead(timeout time.Duration) time.Duration {
	lead := 5 * time.Minute
	if pct := timeout / 5; pct < lead {
		lead = pct
	}
	return lead
}

// State is the payload the session-poll endpoint returns. Clients derive
// their warning and logout timers from it instead of tracking durations
// locally.
type State struct {
	Active         bool      `json:"active"`
	TimeoutSeconds int       `json:"timeout_seconds,omitempty"`
	ExpiresAt      time.Time `json:"expires_at,omitempty"`
	WarningAt      time.Time `json:"warning_at,omitempty"`
	ServerTime     time.Time `json:"server_time"`
}

// StateOf builds the poll payload for a live session.
func StateOf(s *Session, timeout time.Duration, now time.Time) State {
	return State{
		Active:         true,
		TimeoutSeconds: int(timeout / time.Second),
		ExpiresAt:      s.ExpiresAt,
		WarningAt:      s.ExpiresAt.Add(-WarningLead(timeout)),
		ServerTime:     now,
	}
}

// InactiveState is what an expired or unknown session polls back; it is a
// normal answer, not an error, so a flaky network never forces a logout.
func InactiveState(now time.Time) State {
	return State{Active: false, ServerTime: now}
}
