package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWarningLead(t *testing.T) {
	assert.Equal(t, 5*time.Minute, WarningLead(30*time.Minute))
	assert.Equal(t, 5*time.Minute, WarningLead(25*time.Minute))
	// Short timeouts warn at 20% instead of a fixed five minutes.
	assert.Equal(t, 2*time.Minute, WarningLead(10*time.Minute))
}

func TestStateOf(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	sess := &Session{ExpiresAt: now.Add(30 * time.Minute)}

	state := StateOf(sess, 30*time.Minute, now)
	assert.True(t, state.Active)
	assert.Equal(t, 1800, state.TimeoutSeconds)
	assert.Equal(t, sess.ExpiresAt, state.ExpiresAt)
	assert.Equal(t, sess.ExpiresAt.Add(-5*time.Minute), state.WarningAt)
	assert.Equal(t, now, state.ServerTime)
}

func TestInactiveState(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	state := InactiveState(now)
	assert.False(t, state.Active)
	assert.Zero(t, state.TimeoutSeconds)
	assert.Equal(t, now, state.ServerTime)
}
