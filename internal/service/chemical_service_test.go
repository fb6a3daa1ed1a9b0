package service

import (
	"context"
	"testing"
	"time"

	"toolcrib/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChemicalFixture(t *testing.T) (*chemicalService, *fakeChemicalRepo) {
	t.Helper()
	repo := newFakeChemicalRepo()
	svc := NewChemicalService(repo, &fakeAuditRepo{}, fakeTxManager{}, nil).(*chemicalService)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestIssueChemical(t *testing.T) {
	svc, _ := newChemicalFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	exp := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	chem, err := svc.CreateChemical(ctx, actor, CreateChemicalRequest{
		PartNumber:     "PR-1440",
		LotNumber:      "L0425",
		Description:    "fuel tank sealant",
		Quantity:       decimal.NewFromFloat(2.5),
		Unit:           "kg",
		ExpirationDate: &exp,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ChemicalAvailable, chem.Status)

	_, err = svc.IssueChemical(ctx, actor, chem.ID.String(), IssueChemicalRequest{Quantity: decimal.Zero})
	assert.ErrorContains(t, err, "must be positive")

	_, err = svc.IssueChemical(ctx, actor, chem.ID.String(), IssueChemicalRequest{Quantity: decimal.NewFromFloat(3.0)})
	assert.ErrorContains(t, err, "only 2.5 on hand")

	issued, err := svc.IssueChemical(ctx, actor, chem.ID.String(), IssueChemicalRequest{Quantity: decimal.NewFromFloat(1.25)})
	require.NoError(t, err)
	assert.True(t, issued.Quantity.Equal(decimal.NewFromFloat(1.25)))
	assert.Equal(t, model.ChemicalAvailable, issued.Status)

	// Draining the lot marks it depleted.
	issued, err = svc.IssueChemical(ctx, actor, chem.ID.String(), IssueChemicalRequest{Quantity: decimal.NewFromFloat(1.25)})
	require.NoError(t, err)
	assert.True(t, issued.Quantity.IsZero())
	assert.Equal(t, model.ChemicalDepleted, issued.Status)
}

func TestIssueChemicalRefusesExpiredLot(t *testing.T) {
	svc, _ := newChemicalFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	exp := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	chem, err := svc.CreateChemical(ctx, actor, CreateChemicalRequest{
		PartNumber:     "MEK-1",
		LotNumber:      "L0124",
		Description:    "solvent",
		Quantity:       decimal.NewFromInt(5),
		Unit:           "l",
		ExpirationDate: &exp,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ChemicalExpired, chem.Status)

	_, err = svc.IssueChemical(ctx, actor, chem.ID.String(), IssueChemicalRequest{Quantity: decimal.NewFromInt(1)})
	assert.ErrorContains(t, err, "expired lot")
}

func TestChemicalStatusExpirationWinsOverDepletion(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	empty := &model.Chemical{Quantity: decimal.Zero}
	assert.Equal(t, model.ChemicalDepleted, chemicalStatus(empty, now))

	emptyAndExpired := &model.Chemical{Quantity: decimal.Zero, ExpirationDate: &past}
	assert.Equal(t, model.ChemicalExpired, chemicalStatus(emptyAndExpired, now))

	stocked := &model.Chemical{Quantity: decimal.NewFromInt(3)}
	assert.Equal(t, model.ChemicalAvailable, chemicalStatus(stocked, now))
}

func TestExpiringChemicals(t *testing.T) {
	svc, _ := newChemicalFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	soon := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	later := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.CreateChemical(ctx, actor, CreateChemicalRequest{
		PartNumber: "A", LotNumber: "1", Description: "a", Quantity: decimal.NewFromInt(1), Unit: "ea", ExpirationDate: &soon,
	})
	require.NoError(t, err)
	_, err = svc.CreateChemical(ctx, actor, CreateChemicalRequest{
		PartNumber: "B", LotNumber: "2", Description: "b", Quantity: decimal.NewFromInt(1), Unit: "ea", ExpirationDate: &later,
	})
	require.NoError(t, err)

	expiring, err := svc.ExpiringChemicals(ctx, 30)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "A", expiring[0].PartNumber)
}
