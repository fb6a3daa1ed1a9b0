package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	open := Checkout{ExpectedReturnDate: &past}
	assert.True(t, open.Overdue(now))

	onTime := Checkout{ExpectedReturnDate: &future}
	assert.False(t, onTime.Overdue(now))

	noDate := Checkout{}
	assert.False(t, noDate.Overdue(now))

	returned := Checkout{ExpectedReturnDate: &past, ReturnedAt: &now}
	assert.False(t, returned.Overdue(now))
}

func TestChemicalExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Chemical{ExpirationDate: &past}).Expired(now))
	assert.False(t, (&Chemical{ExpirationDate: &future}).Expired(now))
	assert.False(t, (&Chemical{}).Expired(now))
}
