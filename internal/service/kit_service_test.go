package service

import (
	"context"
	"testing"

	"toolcrib/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKitFixture(t *testing.T) (KitService, *fakeKitRepo, *fakeAuditRepo) {
	t.Helper()
	repo := newFakeKitRepo()
	auditRepo := &fakeAuditRepo{}
	return NewKitService(repo, auditRepo, fakeTxManager{}, nil), repo, auditRepo
}

func seedKitItem(t *testing.T, svc KitService, quantity, minQuantity int) (*model.Kit, *model.KitItem) {
	t.Helper()
	ctx := context.Background()
	actor := uuid.NewString()

	kit, err := svc.CreateKit(ctx, actor, CreateKitRequest{Name: "B737 line kit", AircraftType: "B737"})
	require.NoError(t, err)

	box, err := svc.AddBox(ctx, actor, kit.ID.String(), CreateKitBoxRequest{BoxNumber: 1, Label: "fasteners"})
	require.NoError(t, err)

	item, err := svc.AddItem(ctx, actor, box.ID.String(), CreateKitItemRequest{
		PartNumber:  "NAS1149",
		Quantity:    quantity,
		MinQuantity: minQuantity,
	})
	require.NoError(t, err)
	return kit, item
}

func TestAddBoxRejectsDuplicateNumber(t *testing.T) {
	svc, _, _ := newKitFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	kit, err := svc.CreateKit(ctx, actor, CreateKitRequest{Name: "A320 kit", AircraftType: "A320"})
	require.NoError(t, err)

	_, err = svc.AddBox(ctx, actor, kit.ID.String(), CreateKitBoxRequest{BoxNumber: 2})
	require.NoError(t, err)
	_, err = svc.AddBox(ctx, actor, kit.ID.String(), CreateKitBoxRequest{BoxNumber: 2})
	assert.ErrorContains(t, err, "already exists")
}

func TestIssueItemStatusDerivation(t *testing.T) {
	svc, _, auditRepo := newKitFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	_, item := seedKitItem(t, svc, 10, 2)
	assert.Equal(t, model.KitItemStocked, item.Status)

	// Any issuance that leaves stock flips the line to issued, even when the
	// remaining balance is still above the minimum.
	issued, err := svc.IssueItem(ctx, actor, item.ID.String(), KitItemQuantityRequest{Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, issued.Quantity)
	assert.Equal(t, model.KitItemIssued, issued.Status)
	assert.Equal(t, model.ActionIssueKitItem, auditRepo.lastAction())

	// Draining it marks out of stock.
	issued, err = svc.IssueItem(ctx, actor, item.ID.String(), KitItemQuantityRequest{Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, 0, issued.Quantity)
	assert.Equal(t, model.KitItemOutOfStock, issued.Status)

	// Nothing left to issue.
	_, err = svc.IssueItem(ctx, actor, item.ID.String(), KitItemQuantityRequest{Quantity: 1})
	assert.ErrorContains(t, err, "only 0 in stock")

	// Restocking returns the line to stocked.
	restocked, err := svc.RestockItem(ctx, actor, item.ID.String(), KitItemQuantityRequest{Quantity: 6})
	require.NoError(t, err)
	assert.Equal(t, 6, restocked.Quantity)
	assert.Equal(t, model.KitItemStocked, restocked.Status)
	assert.Equal(t, model.ActionRestockKitItem, auditRepo.lastAction())
}

func TestDeleteKitRequiresDeactivation(t *testing.T) {
	svc, _, _ := newKitFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	kit, err := svc.CreateKit(ctx, actor, CreateKitRequest{Name: "spares", AircraftType: "B777"})
	require.NoError(t, err)

	err = svc.DeleteKit(ctx, actor, kit.ID.String())
	assert.ErrorContains(t, err, "deactivated before deletion")

	require.NoError(t, svc.SetKitActive(ctx, actor, kit.ID.String(), false))
	require.NoError(t, svc.DeleteKit(ctx, actor, kit.ID.String()))

	_, err = svc.GetKit(ctx, kit.ID.String())
	assert.ErrorContains(t, err, "kit not found")
}

func TestItemStatusDerivation(t *testing.T) {
	assert.Equal(t, model.KitItemOutOfStock, issuedItemStatus(0))
	assert.Equal(t, model.KitItemIssued, issuedItemStatus(3))
	assert.Equal(t, model.KitItemOutOfStock, stockedItemStatus(0))
	assert.Equal(t, model.KitItemStocked, stockedItemStatus(8))
}
