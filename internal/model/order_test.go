package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"new to in_progress", OrderStatusNew, OrderStatusInProgress, true},
		{"new straight to ordered", OrderStatusNew, OrderStatusOrdered, true},
		{"new cannot skip to shipped", OrderStatusNew, OrderStatusShipped, false},
		{"awaiting_info back to in_progress", OrderStatusAwaitingInfo, OrderStatusInProgress, true},
		{"in_progress back to awaiting_info", OrderStatusInProgress, OrderStatusAwaitingInfo, true},
		{"ordered to shipped", OrderStatusOrdered, OrderStatusShipped, true},
		{"ordered cannot revert", OrderStatusOrdered, OrderStatusInProgress, false},
		{"shipped to received", OrderStatusShipped, OrderStatusReceived, true},
		{"cancel from shipped", OrderStatusShipped, OrderStatusCancelled, true},
		{"received is terminal", OrderStatusReceived, OrderStatusCancelled, false},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusNew, false},
		{"unknown status", "bogus", OrderStatusNew, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidOrderStatus(t *testing.T) {
	assert.True(t, ValidOrderStatus(OrderStatusNew))
	assert.True(t, ValidOrderStatus(OrderStatusCancelled))
	assert.False(t, ValidOrderStatus("pending"))
	assert.False(t, ValidOrderStatus(""))
}

func TestValidOrderType(t *testing.T) {
	assert.True(t, ValidOrderType(OrderTypeTool))
	assert.True(t, ValidOrderType(OrderTypeKit))
	assert.False(t, ValidOrderType("gadget"))
}

func TestValidPriority(t *testing.T) {
	assert.True(t, ValidPriority(PriorityCritical))
	assert.True(t, ValidPriority(PriorityLow))
	assert.False(t, ValidPriority("urgent"))
}

func TestOrderDueStatusAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	soon := now.Add(3 * 24 * time.Hour)
	far := now.Add(30 * 24 * time.Hour)

	tests := []struct {
		name  string
		order Order
		want  string
	}{
		{"received is completed even when late", Order{Status: OrderStatusReceived, DueDate: &past}, DueStatusCompleted},
		{"cancelled is completed", Order{Status: OrderStatusCancelled, DueDate: &soon}, DueStatusCompleted},
		{"no due date", Order{Status: OrderStatusNew}, DueStatusUnscheduled},
		{"past due", Order{Status: OrderStatusInProgress, DueDate: &past}, DueStatusLate},
		{"inside the window", Order{Status: OrderStatusOrdered, DueDate: &soon}, DueStatusDueSoon},
		{"well ahead", Order{Status: OrderStatusNew, DueDate: &far}, DueStatusOnTrack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.order.DueStatusAt(now))
		})
	}
}
