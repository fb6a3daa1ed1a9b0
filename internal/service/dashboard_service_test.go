package service

import (
	"context"
	"testing"
	"time"

	"toolcrib/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboardFixture(t *testing.T) (*dashboardService, *fakeOrderRepo) {
	t.Helper()
	orderRepo := newFakeOrderRepo()
	svc := NewDashboardService(
		newFakeToolRepo(),
		newFakeCheckoutRepo(),
		newFakeKitRepo(),
		newFakeChemicalRepo(),
		orderRepo,
	).(*dashboardService)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, orderRepo
}

func TestDashboardCountsDueOrdersAcrossPages(t *testing.T) {
	svc, orderRepo := newDashboardFixture(t)
	ctx := context.Background()

	now := svc.now()
	overdue := now.Add(-48 * time.Hour)
	upcoming := now.Add(72 * time.Hour)

	// More orders than one scan page so the counts must span pages.
	for i := 0; i < 2*dueScanPageSize+1; i++ {
		due := overdue
		if i%2 == 0 {
			due = upcoming
		}
		order := model.Order{
			ID:      uuid.New(),
			Status:  model.OrderStatusNew,
			DueDate: &due,
		}
		orderRepo.orders[order.ID] = order
	}

	res, err := svc.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(dueScanPageSize+1), res.OrderDue.DueSoon)
	assert.Equal(t, int64(dueScanPageSize), res.OrderDue.Late)
}

func TestDashboardSkipsTerminalOrders(t *testing.T) {
	svc, orderRepo := newDashboardFixture(t)
	ctx := context.Background()

	pastDue := svc.now().Add(-time.Hour)
	received := model.Order{ID: uuid.New(), Status: model.OrderStatusReceived, DueDate: &pastDue}
	cancelled := model.Order{ID: uuid.New(), Status: model.OrderStatusCancelled, DueDate: &pastDue}
	open := model.Order{ID: uuid.New(), Status: model.OrderStatusOrdered, DueDate: &pastDue}
	orderRepo.orders[received.ID] = received
	orderRepo.orders[cancelled.ID] = cancelled
	orderRepo.orders[open.ID] = open

	res, err := svc.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.OrderDue.Late)
	assert.Equal(t, int64(0), res.OrderDue.DueSoon)
}
