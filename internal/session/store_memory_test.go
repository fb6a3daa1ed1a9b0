package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSlidingExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	userID := uuid.New()
	sess, err := store.Create(ctx, userID, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, userID, sess.UserID)
	assert.Equal(t, now.Add(30*time.Minute), sess.ExpiresAt)

	// Activity before the deadline slides the window.
	now = now.Add(20 * time.Minute)
	require.NoError(t, store.Touch(ctx, sess.ID, 30*time.Minute))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, now, got.LastActivity)
	assert.Equal(t, now.Add(30*time.Minute), got.ExpiresAt)

	// Idle past the refreshed deadline expires the session.
	now = now.Add(31 * time.Minute)
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// And a touch after expiry cannot revive it.
	err = store.Touch(ctx, sess.ID, 30*time.Minute)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDeleteByUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	userID := uuid.New()
	otherID := uuid.New()

	first, err := store.Create(ctx, userID, time.Hour)
	require.NoError(t, err)
	second, err := store.Create(ctx, userID, time.Hour)
	require.NoError(t, err)
	other, err := store.Create(ctx, otherID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.DeleteByUser(ctx, userID))

	_, err = store.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, other.ID)
	assert.NoError(t, err)
}
