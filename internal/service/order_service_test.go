package service

import (
	"context"
	"testing"
	"time"

	"toolcrib/internal/model"
	"toolcrib/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderFixture(t *testing.T) (*orderService, *fakeOrderRepo, *fakeUserRepo, *fakeAuditRepo) {
	t.Helper()

	orderRepo := newFakeOrderRepo()
	userRepo := newFakeUserRepo()
	auditRepo := &fakeAuditRepo{}

	svc := NewOrderService(orderRepo, userRepo, auditRepo, fakeTxManager{}, nil).(*orderService)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, orderRepo, userRepo, auditRepo
}

func TestCreateOrder(t *testing.T) {
	svc, _, userRepo, auditRepo := newOrderFixture(t)
	ctx := context.Background()

	actor := userRepo.add(model.User{Username: "tech", FullName: "Avery Tech"})

	res, err := svc.CreateOrder(ctx, actor.String(), CreateOrderRequest{
		Title:     "Torque wrench 50Nm",
		OrderType: model.OrderTypeTool,
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusNew, res.Status)
	assert.Equal(t, model.PriorityNormal, res.Priority, "priority defaults to normal")
	assert.Equal(t, 1, res.Version)
	require.NotNil(t, res.RequesterID)
	assert.Equal(t, actor.String(), *res.RequesterID)
	assert.Equal(t, model.DueStatusUnscheduled, res.DueStatus)
	assert.Equal(t, model.ActionCreateOrder, auditRepo.lastAction())

	got, err := svc.GetOrder(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Torque wrench 50Nm", got.Title)
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, uuid.NewString(), CreateOrderRequest{Title: "x", OrderType: "gadget"})
	assert.ErrorContains(t, err, "invalid order type")

	_, err = svc.CreateOrder(ctx, uuid.NewString(), CreateOrderRequest{
		Title: "x", OrderType: model.OrderTypeTool, Priority: "urgent",
	})
	assert.ErrorContains(t, err, "invalid priority")
}

func TestUpdateOrderVersionConflict(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	res, err := svc.CreateOrder(ctx, actor, CreateOrderRequest{Title: "Sealant", OrderType: model.OrderTypeChemical})
	require.NoError(t, err)

	// First writer wins and bumps the version.
	updated, err := svc.UpdateOrder(ctx, actor, res.ID, UpdateOrderRequest{Version: 1, Title: "Sealant PR-1440"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	// Second writer still holds version 1 and must be rejected.
	_, err = svc.UpdateOrder(ctx, actor, res.ID, UpdateOrderRequest{Version: 1, Title: "Sealant PR-1422"})
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	got, err := svc.GetOrder(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sealant PR-1440", got.Title, "stale write must not land")
}

func TestUpdateOrderRefusesTerminalStates(t *testing.T) {
	svc, orderRepo, _, _ := newOrderFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	res, err := svc.CreateOrder(ctx, actor, CreateOrderRequest{Title: "Drill", OrderType: model.OrderTypeTool})
	require.NoError(t, err)

	id := uuid.MustParse(res.ID)
	stored := orderRepo.orders[id]
	stored.Status = model.OrderStatusReceived
	orderRepo.orders[id] = stored

	_, err = svc.UpdateOrder(ctx, actor, res.ID, UpdateOrderRequest{Version: 1, Title: "Drill bit"})
	assert.ErrorContains(t, err, "can no longer be edited")
}

func TestTransitionOrder(t *testing.T) {
	svc, _, userRepo, auditRepo := newOrderFixture(t)
	ctx := context.Background()

	buyer := userRepo.add(model.User{Username: "buyer", FullName: "Blake Buyer"})

	res, err := svc.CreateOrder(ctx, uuid.NewString(), CreateOrderRequest{Title: "Rivets", OrderType: model.OrderTypeExpendable})
	require.NoError(t, err)

	// Illegal jump.
	_, err = svc.TransitionOrder(ctx, buyer.String(), res.ID, TransitionOrderRequest{Version: 1, Status: model.OrderStatusShipped})
	assert.ErrorContains(t, err, "cannot move order")

	// Picking up the order assigns the acting user as buyer.
	moved, err := svc.TransitionOrder(ctx, buyer.String(), res.ID, TransitionOrderRequest{Version: 1, Status: model.OrderStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusInProgress, moved.Status)
	require.NotNil(t, moved.BuyerID)
	assert.Equal(t, buyer.String(), *moved.BuyerID)
	assert.Equal(t, 2, moved.Version)
	assert.Equal(t, model.ActionOrderTransition, auditRepo.lastAction())

	// Walk it to received; the terminal state then rejects further moves.
	moved, err = svc.TransitionOrder(ctx, buyer.String(), res.ID, TransitionOrderRequest{Version: 2, Status: model.OrderStatusOrdered})
	require.NoError(t, err)
	moved, err = svc.TransitionOrder(ctx, buyer.String(), res.ID, TransitionOrderRequest{Version: 3, Status: model.OrderStatusShipped})
	require.NoError(t, err)
	moved, err = svc.TransitionOrder(ctx, buyer.String(), res.ID, TransitionOrderRequest{Version: 4, Status: model.OrderStatusReceived})
	require.NoError(t, err)
	assert.Equal(t, model.DueStatusCompleted, moved.DueStatus)

	_, err = svc.TransitionOrder(ctx, buyer.String(), res.ID, TransitionOrderRequest{Version: 5, Status: model.OrderStatusNew})
	assert.ErrorContains(t, err, "cannot move order")
}

func TestSendMessageDefaultsRecipient(t *testing.T) {
	svc, orderRepo, userRepo, _ := newOrderFixture(t)
	ctx := context.Background()

	requester := userRepo.add(model.User{Username: "tech"})
	buyer := userRepo.add(model.User{Username: "buyer"})

	res, err := svc.CreateOrder(ctx, requester.String(), CreateOrderRequest{Title: "Gloves", OrderType: model.OrderTypeExpendable})
	require.NoError(t, err)

	id := uuid.MustParse(res.ID)
	stored := orderRepo.orders[id]
	stored.BuyerID = &buyer
	orderRepo.orders[id] = stored

	// Requester writes without naming a recipient: the buyer gets it.
	msg, err := svc.SendMessage(ctx, requester.String(), res.ID, SendOrderMessageRequest{Body: "any update?"})
	require.NoError(t, err)
	require.NotNil(t, msg.RecipientID)
	assert.Equal(t, buyer, *msg.RecipientID)

	// Buyer replies without a recipient: back to the requester.
	reply, err := svc.SendMessage(ctx, buyer.String(), res.ID, SendOrderMessageRequest{Body: "shipping friday"})
	require.NoError(t, err)
	require.NotNil(t, reply.RecipientID)
	assert.Equal(t, requester, *reply.RecipientID)
}

func TestInboxAndMarkRead(t *testing.T) {
	svc, _, userRepo, _ := newOrderFixture(t)
	ctx := context.Background()

	requester := userRepo.add(model.User{Username: "tech"})
	buyer := userRepo.add(model.User{Username: "buyer"})

	res, err := svc.CreateOrder(ctx, requester.String(), CreateOrderRequest{Title: "Clamps", OrderType: model.OrderTypeTool})
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, requester.String(), res.ID, SendOrderMessageRequest{
		RecipientID: buyer.String(),
		Subject:     "priority bump",
		Body:        "line is down",
	})
	require.NoError(t, err)

	inbox, err := svc.Inbox(ctx, buyer.String(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inbox.Total)
	assert.Equal(t, int64(1), inbox.Unread)

	// Only the recipient can mark it read.
	err = svc.MarkMessageRead(ctx, requester.String(), msg.ID.String())
	assert.ErrorContains(t, err, "only the recipient")

	require.NoError(t, svc.MarkMessageRead(ctx, buyer.String(), msg.ID.String()))

	inbox, err = svc.Inbox(ctx, buyer.String(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inbox.Unread)
}
