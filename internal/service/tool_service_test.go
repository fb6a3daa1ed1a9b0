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

func newToolFixture(t *testing.T) (*toolService, *fakeCheckoutRepo, *fakeAuditRepo) {
	t.Helper()

	checkoutRepo := newFakeCheckoutRepo()
	auditRepo := &fakeAuditRepo{}

	svc := NewToolService(newFakeToolRepo(), checkoutRepo, &fakeCalibrationRepo{}, auditRepo, fakeTxManager{}, nil).(*toolService)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, checkoutRepo, auditRepo
}

func TestCreateToolRejectsDuplicateNumber(t *testing.T) {
	svc, _, _ := newToolFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	_, err := svc.CreateTool(ctx, actor, CreateToolRequest{ToolNumber: "TQ-100", Description: "torque wrench"})
	require.NoError(t, err)

	_, err = svc.CreateTool(ctx, actor, CreateToolRequest{ToolNumber: "TQ-100", Description: "another"})
	assert.ErrorContains(t, err, "tool number already exists")
}

func TestCheckoutAndReturn(t *testing.T) {
	svc, checkoutRepo, auditRepo := newToolFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	tool, err := svc.CreateTool(ctx, actor, CreateToolRequest{ToolNumber: "DR-200", Description: "drill"})
	require.NoError(t, err)

	co, err := svc.CheckoutTool(ctx, actor, tool.ID, CheckoutToolRequest{Note: "bay 3"})
	require.NoError(t, err)
	assert.Equal(t, actor, co.UserID)
	assert.Equal(t, model.ActionCheckoutTool, auditRepo.lastAction())

	got, err := svc.GetTool(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ToolStatusCheckedOut, got.Status)

	// A second checkout while it is out is refused.
	_, err = svc.CheckoutTool(ctx, uuid.NewString(), tool.ID, CheckoutToolRequest{})
	assert.ErrorContains(t, err, "not available")

	returned, err := svc.ReturnTool(ctx, actor, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ToolStatusAvailable, returned.Status)

	open, err := checkoutRepo.CountOpen(ctx)
	require.NoError(t, err)
	assert.Zero(t, open, "return closes the open checkout")

	// Returning an available tool is refused.
	_, err = svc.ReturnTool(ctx, actor, tool.ID)
	assert.ErrorContains(t, err, "not checked out")
}

func TestRemoveAndReturnToService(t *testing.T) {
	svc, _, _ := newToolFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	tool, err := svc.CreateTool(ctx, actor, CreateToolRequest{ToolNumber: "MC-300", Description: "micrometer"})
	require.NoError(t, err)

	out, err := svc.RemoveFromService(ctx, actor, tool.ID, RemoveFromServiceRequest{Status: model.ToolStatusMaintenance, Reason: "dropped"})
	require.NoError(t, err)
	assert.Equal(t, model.ToolStatusMaintenance, out.Status)

	// A tool in maintenance is not available to check out.
	_, err = svc.CheckoutTool(ctx, actor, tool.ID, CheckoutToolRequest{})
	assert.ErrorContains(t, err, "not available")

	back, err := svc.ReturnToService(ctx, actor, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ToolStatusAvailable, back.Status)

	_, err = svc.ReturnToService(ctx, actor, tool.ID)
	assert.ErrorContains(t, err, "not out of service")
}

func TestDeleteToolRefusedWhileCheckedOut(t *testing.T) {
	svc, _, _ := newToolFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	tool, err := svc.CreateTool(ctx, actor, CreateToolRequest{ToolNumber: "SW-400", Description: "socket wrench"})
	require.NoError(t, err)

	_, err = svc.CheckoutTool(ctx, actor, tool.ID, CheckoutToolRequest{})
	require.NoError(t, err)

	err = svc.DeleteTool(ctx, actor, tool.ID)
	assert.ErrorContains(t, err, "checked-out")
}

func TestRecordCalibration(t *testing.T) {
	svc, _, _ := newToolFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	plain, err := svc.CreateTool(ctx, actor, CreateToolRequest{ToolNumber: "HM-500", Description: "hammer"})
	require.NoError(t, err)

	_, err = svc.RecordCalibration(ctx, actor, plain.ID, RecordCalibrationRequest{
		PerformedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Result:      model.CalibrationPass,
	})
	assert.ErrorContains(t, err, "not calibration-tracked")

	tracked, err := svc.CreateTool(ctx, actor, CreateToolRequest{
		ToolNumber:               "TQ-600",
		Description:              "torque wrench",
		CalibrationFrequencyDays: 90,
	})
	require.NoError(t, err)

	performed := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	res, err := svc.RecordCalibration(ctx, actor, tracked.ID, RecordCalibrationRequest{
		PerformedAt: performed,
		Result:      model.CalibrationPass,
	})
	require.NoError(t, err)

	require.NotNil(t, res.LastCalibrationDate)
	require.NotNil(t, res.NextCalibrationDate)
	assert.Equal(t, performed, *res.LastCalibrationDate)
	assert.Equal(t, performed.AddDate(0, 0, 90), *res.NextCalibrationDate)

	records, err := svc.ListCalibrations(ctx, tracked.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.CalibrationPass, records[0].Result)
}

func TestCalibrationDue(t *testing.T) {
	svc, _, _ := newToolFixture(t)
	ctx := context.Background()
	actor := uuid.NewString()

	soon, err := svc.CreateTool(ctx, actor, CreateToolRequest{
		ToolNumber: "CA-700", Description: "caliper", CalibrationFrequencyDays: 30,
	})
	require.NoError(t, err)
	_, err = svc.RecordCalibration(ctx, actor, soon.ID, RecordCalibrationRequest{
		PerformedAt: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		Result:      model.CalibrationPass,
	})
	require.NoError(t, err)

	far, err := svc.CreateTool(ctx, actor, CreateToolRequest{
		ToolNumber: "CA-701", Description: "caliper", CalibrationFrequencyDays: 365,
	})
	require.NoError(t, err)
	_, err = svc.RecordCalibration(ctx, actor, far.ID, RecordCalibrationRequest{
		PerformedAt: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		Result:      model.CalibrationPass,
	})
	require.NoError(t, err)

	// Next due dates: CA-700 on June 9, CA-701 next year. A 30-day window from
	// June 1 catches only the first.
	due, err := svc.CalibrationDue(ctx, 30)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "CA-700", due[0].ToolNumber)
}
