package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"toolcrib/internal/model"
	"toolcrib/internal/repository"
	ws "toolcrib/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateToolRequest struct {
	ToolNumber               string `json:"tool_number" binding:"required"`
	SerialNumber             string `json:"serial_number"`
	LotNumber                string `json:"lot_number"`
	Description              string `json:"description" binding:"required"`
	Warehouse                string `json:"warehouse"`
	CalibrationFrequencyDays int    `json:"calibration_frequency_days" binding:"omitempty,gte=0"`
}

type UpdateToolRequest struct {
	SerialNumber             string `json:"serial_number"`
	LotNumber                string `json:"lot_number"`
	Description              string `json:"description"`
	Warehouse                string `json:"warehouse"`
	CalibrationFrequencyDays *int   `json:"calibration_frequency_days" binding:"omitempty"`
}

type CheckoutToolRequest struct {
	ExpectedReturnDate *time.Time `json:"expected_return_date"`
	Note               string     `json:"note"`
}

type RemoveFromServiceRequest struct {
	// Target state: maintenance or retired.
	Status string `json:"status" binding:"required,oneof=maintenance retired"`
	Reason string `json:"reason"`
}

type RecordCalibrationRequest struct {
	PerformedAt     time.Time `json:"performed_at" binding:"required"`
	Result          string    `json:"result" binding:"required,oneof=pass fail"`
	CertificatePath string    `json:"certificate_path"`
	Notes           string    `json:"notes"`
}

type ToolResponse struct {
	ID                       string     `json:"id"`
	ToolNumber               string     `json:"tool_number"`
	SerialNumber             string     `json:"serial_number"`
	LotNumber                string     `json:"lot_number"`
	Description              string     `json:"description"`
	Status                   string     `json:"status"`
	Warehouse                string     `json:"warehouse"`
	CalibrationFrequencyDays int        `json:"calibration_frequency_days"`
	LastCalibrationDate      *time.Time `json:"last_calibration_date"`
	NextCalibrationDate      *time.Time `json:"next_calibration_date"`
}

type CheckoutResponse struct {
	ID                 string     `json:"id"`
	ToolID             string     `json:"tool_id"`
	ToolNumber         string     `json:"tool_number"`
	UserID             string     `json:"user_id"`
	CheckedOutAt       time.Time  `json:"checked_out_at"`
	ExpectedReturnDate *time.Time `json:"expected_return_date"`
	ReturnedAt         *time.Time `json:"returned_at"`
	Overdue            bool       `json:"overdue"`
	Note               string     `json:"note,omitempty"`
}

type ToolService interface {
	CreateTool(ctx context.Context, actorID string, req CreateToolRequest) (*ToolResponse, error)
	GetTool(ctx context.Context, id string) (*ToolResponse, error)
	ListTools(ctx context.Context, filter repository.ToolFilter, page, limit int) ([]ToolResponse, int64, error)
	UpdateTool(ctx context.Context, actorID, id string, req UpdateToolRequest) (*ToolResponse, error)
	DeleteTool(ctx context.Context, actorID, id string) error

	CheckoutTool(ctx context.Context, actorID, id string, req CheckoutToolRequest) (*CheckoutResponse, error)
	ReturnTool(ctx context.Context, actorID, id string) (*ToolResponse, error)
	RemoveFromService(ctx context.Context, actorID, id string, req RemoveFromServiceRequest) (*ToolResponse, error)
	ReturnToService(ctx context.Context, actorID, id string) (*ToolResponse, error)

	RecordCalibration(ctx context.Context, actorID, id string, req RecordCalibrationRequest) (*ToolResponse, error)
	ListCalibrations(ctx context.Context, toolID string) ([]model.CalibrationRecord, error)
	CalibrationDue(ctx context.Context, withinDays int) ([]ToolResponse, error)

	ListToolCheckouts(ctx context.Context, toolID string, page, limit int) ([]CheckoutResponse, int64, error)
	ListUserCheckouts(ctx context.Context, userID string, openOnly bool, page, limit int) ([]CheckoutResponse, int64, error)
	ListOpenCheckouts(ctx context.Context, page, limit int) ([]CheckoutResponse, int64, error)
}

type toolService struct {
	toolRepo     repository.ToolRepository
	checkoutRepo repository.CheckoutRepository
	calibRepo    repository.CalibrationRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
	now          func() time.Time
}

func NewToolService(
	toolRepo repository.ToolRepository,
	checkoutRepo repository.CheckoutRepository,
	calibRepo repository.CalibrationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ToolService {
	return &toolService{
		toolRepo:     toolRepo,
		checkoutRepo: checkoutRepo,
		calibRepo:    calibRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
		now:          time.Now,
	}
}

func mapTool(t *model.Tool) *ToolResponse {
	return &ToolResponse{
		ID:                       t.ID.String(),
		ToolNumber:               t.ToolNumber,
		SerialNumber:             t.SerialNumber,
		LotNumber:                t.LotNumber,
		Description:              t.Description,
		Status:                   t.Status,
		Warehouse:                t.Warehouse,
		CalibrationFrequencyDays: t.CalibrationFrequencyDays,
		LastCalibrationDate:      t.LastCalibrationDate,
		NextCalibrationDate:      t.NextCalibrationDate,
	}
}

func (s *toolService) mapCheckout(c *model.Checkout) CheckoutResponse {
	return CheckoutResponse{
		ID:                 c.ID.String(),
		ToolID:             c.ToolID.String(),
		ToolNumber:         c.Tool.ToolNumber,
		UserID:             c.UserID.String(),
		CheckedOutAt:       c.CheckedOutAt,
		ExpectedReturnDate: c.ExpectedReturnDate,
		ReturnedAt:         c.ReturnedAt,
		Overdue:            c.Overdue(s.now()),
		Note:               c.Note,
	}
}

func (s *toolService) findTool(ctx context.Context, id string) (*model.Tool, error) {
	toolID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tool id: %w", err)
	}

	tool, err := s.toolRepo.FindByID(ctx, toolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("tool not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return tool, nil
}

func (s *toolService) publishToolEvent(tool *model.Tool) {
	s.hub.Publish(ws.EventToolChanged, map[string]interface{}{
		"id":     tool.ID.String(),
		"status": tool.Status,
	})
}

func (s *toolService) CreateTool(ctx context.Context, actorID string, req CreateToolRequest) (*ToolResponse, error) {
	if _, err := s.toolRepo.FindByToolNumber(ctx, req.ToolNumber); err == nil {
		return nil, errors.New("tool number already exists")
	}

	tool := &model.Tool{
		ToolNumber:               req.ToolNumber,
		SerialNumber:             req.SerialNumber,
		LotNumber:                req.LotNumber,
		Description:              req.Description,
		Warehouse:                req.Warehouse,
		Status:                   model.ToolStatusAvailable,
		CalibrationFrequencyDays: req.CalibrationFrequencyDays,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.toolRepo.Create(txCtx, tool); err != nil {
			return fmt.Errorf("failed to create tool: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionCreateTool,
			EntityID:   tool.ID.String(),
			EntityName: tool.ToolNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishToolEvent(tool)
	return mapTool(tool), nil
}

func (s *toolService) GetTool(ctx context.Context, id string) (*ToolResponse, error) {
	tool, err := s.findTool(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapTool(tool), nil
}

func (s *toolService) ListTools(ctx context.Context, filter repository.ToolFilter, page, limit int) ([]ToolResponse, int64, error) {
	tools, total, err := s.toolRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ToolResponse, 0, len(tools))
	for i := range tools {
		res = append(res, *mapTool(&tools[i]))
	}
	return res, total, nil
}

func (s *toolService) UpdateTool(ctx context.Context, actorID, id string, req UpdateToolRequest) (*ToolResponse, error) {
	tool, err := s.findTool(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SerialNumber != "" {
		tool.SerialNumber = req.SerialNumber
	}
	if req.LotNumber != "" {
		tool.LotNumber = req.LotNumber
	}
	if req.Description != "" {
		tool.Description = req.Description
	}
	if req.Warehouse != "" {
		tool.Warehouse = req.Warehouse
	}
	if req.CalibrationFrequencyDays != nil {
		tool.CalibrationFrequencyDays = *req.CalibrationFrequencyDays
		if tool.LastCalibrationDate != nil && tool.CalibrationFrequencyDays > 0 {
			next := tool.LastCalibrationDate.AddDate(0, 0, tool.CalibrationFrequencyDays)
			tool.NextCalibrationDate = &next
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.toolRepo.Update(txCtx, tool); err != nil {
			return fmt.Errorf("failed to update tool: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateTool,
			EntityID:   tool.ID.String(),
			EntityName: tool.ToolNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishToolEvent(tool)
	return mapTool(tool), nil
}

func (s *toolService) DeleteTool(ctx context.Context, actorID, id string) error {
	tool, err := s.findTool(ctx, id)
	if err != nil {
		return err
	}
	if tool.Status == model.ToolStatusCheckedOut {
		return errors.New("cannot delete a checked-out tool")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.toolRepo.Delete(txCtx, tool.ID); err != nil {
			return fmt.Errorf("failed to delete tool: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionDeleteTool,
			EntityID:   tool.ID.String(),
			EntityName: tool.ToolNumber,
			Details:    `{"deleted": true}`,
		})
	})
}

func (s *toolService) CheckoutTool(ctx context.Context, actorID, id string, req CheckoutToolRequest) (*CheckoutResponse, error) {
	tool, err := s.findTool(ctx, id)
	if err != nil {
		return nil, err
	}

	if tool.Status != model.ToolStatusAvailable {
		return nil, fmt.Errorf("tool is not available (status: %s)", tool.Status)
	}

	userID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	checkout := &model.Checkout{
		ToolID:             tool.ID,
		UserID:             userID,
		CheckedOutAt:       s.now(),
		ExpectedReturnDate: req.ExpectedReturnDate,
		Note:               req.Note,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkoutRepo.Create(txCtx, checkout); err != nil {
			return fmt.Errorf("failed to create checkout: %w", err)
		}
		if err := s.toolRepo.UpdateStatus(txCtx, tool.ID, model.ToolStatusCheckedOut); err != nil {
			return fmt.Errorf("failed to update tool status: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionCheckoutTool,
			EntityID:   tool.ID.String(),
			EntityName: tool.ToolNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	tool.Status = model.ToolStatusCheckedOut
	s.publishToolEvent(tool)

	checkout.Tool = *tool
	res := s.mapCheckout(checkout)
	return &res, nil
}

func (s *toolService) ReturnTool(ctx context.Context, actorID, id string) (*ToolResponse, error) {
	tool, err := s.findTool(ctx, id)
	if err != nil {
		return nil, err
	}

	if tool.Status != model.ToolStatusCheckedOut {
		return nil, fmt.Errorf("tool is not checked out (status: %s)", tool.Status)
	}

	open, err := s.checkoutRepo.FindOpenByTool(ctx, tool.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("no open checkout for tool")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkoutRepo.Close(txCtx, open.ID, s.now()); err != nil {
			return fmt.Errorf("failed to close checkout: %w", err)
		}
		if err := s.toolRepo.UpdateStatus(txCtx, tool.ID, model.ToolStatusAvailable); err != nil {
			return fmt.Errorf("failed to update tool status: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionReturnTool,
			EntityID:   tool.ID.String(),
			EntityName: tool.ToolNumber,
			Details:    fmt.Sprintf(`{"checkout_id": %q}`, open.ID.String()),
		})
	})
	if err != nil {
		return nil, err
	}

	tool.Status = model.ToolStatusAvailable
	s.publishToolEvent(tool)
	return mapTool(tool), nil
}

func (s *toolService) RemoveFromService(ctx context.Context, actorID, id string, req RemoveFromServiceRequest) (*ToolResponse, error) {
	tool, err := s.findTool(ctx, id)
	if err != nil {
		return nil, err
	}

	if tool.Status == model.ToolStatusCheckedOut {
		return nil, errors.New("tool must be returned before removal from service")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.toolRepo.UpdateStatus(txCtx, tool.ID, req.Status); err != nil {
			return fmt.Errorf("failed to update tool status: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionToolServiceState,
			EntityID:   tool.ID.String(),
			EntityName: tool.ToolNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	tool.Status = req.Status
	s.publishToolEvent(tool)
	return mapTool(tool), nil
}

func (s *toolService) ReturnToService(ctx context.Context, actorID, id string) (*ToolResponse, error) {
	tool, err := s.findTool(ctx, id)
	if err != nil {
		return nil, err
	}

	if tool.Status != model.ToolStatusMaintenance && tool.Status != model.ToolStatusRetired {
		return nil, fmt.Errorf("tool is not out of service (status: %s)", tool.Status)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.toolRepo.UpdateStatus(txCtx, tool.ID, model.ToolStatusAvailable); err != nil {
			return fmt.Errorf("failed to update tool status: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionToolServiceState,
			EntityID:   tool.ID.String(),
			EntityName: tool.ToolNumber,
			Details:    `{"status": "available"}`,
		})
	})
	if err != nil {
		return nil, err
	}

	tool.Status = model.ToolStatusAvailable
	s.publishToolEvent(tool)
	return mapTool(tool), nil
}

// RecordCalibration stores the calibration event and rolls the tool's
// last/next calibration dates forward from the performed date.
func (s *toolService) RecordCalibration(ctx context.Context, actorID, id string, req RecordCalibrationRequest) (*ToolResponse, error) {
	tool, err := s.findTool(ctx, id)
	if err != nil {
		return nil, err
	}

	if tool.CalibrationFrequencyDays <= 0 {
		return nil, errors.New("tool is not calibration-tracked")
	}

	record := &model.CalibrationRecord{
		ToolID:          tool.ID,
		PerformedAt:     req.PerformedAt,
		PerformedByID:   auditActor(actorID),
		Result:          req.Result,
		CertificatePath: req.CertificatePath,
		Notes:           req.Notes,
	}

	performed := req.PerformedAt
	next := performed.AddDate(0, 0, tool.CalibrationFrequencyDays)
	tool.LastCalibrationDate = &performed
	tool.NextCalibrationDate = &next

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.calibRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("failed to create calibration record: %w", err)
		}
		if err := s.toolRepo.Update(txCtx, tool); err != nil {
			return fmt.Errorf("failed to update tool: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"result":       req.Result,
			"performed_at": req.PerformedAt,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionRecordCalibration,
			EntityID:   tool.ID.String(),
			EntityName: tool.ToolNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	return mapTool(tool), nil
}

func (s *toolService) ListCalibrations(ctx context.Context, toolID string) ([]model.CalibrationRecord, error) {
	id, err := uuid.Parse(toolID)
	if err != nil {
		return nil, fmt.Errorf("invalid tool id: %w", err)
	}
	return s.calibRepo.ListByTool(ctx, id)
}

func (s *toolService) CalibrationDue(ctx context.Context, withinDays int) ([]ToolResponse, error) {
	if withinDays < 0 {
		withinDays = 0
	}
	cutoff := s.now().AddDate(0, 0, withinDays)

	tools, err := s.toolRepo.CalibrationDue(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	res := make([]ToolResponse, 0, len(tools))
	for i := range tools {
		res = append(res, *mapTool(&tools[i]))
	}
	return res, nil
}

func (s *toolService) ListToolCheckouts(ctx context.Context, toolID string, page, limit int) ([]CheckoutResponse, int64, error) {
	id, err := uuid.Parse(toolID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid tool id: %w", err)
	}

	checkouts, total, err := s.checkoutRepo.ListByTool(ctx, id, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return s.mapCheckouts(checkouts), total, nil
}

func (s *toolService) ListUserCheckouts(ctx context.Context, userID string, openOnly bool, page, limit int) ([]CheckoutResponse, int64, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid user id: %w", err)
	}

	checkouts, total, err := s.checkoutRepo.ListByUser(ctx, id, openOnly, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return s.mapCheckouts(checkouts), total, nil
}

func (s *toolService) ListOpenCheckouts(ctx context.Context, page, limit int) ([]CheckoutResponse, int64, error) {
	checkouts, total, err := s.checkoutRepo.ListOpen(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return s.mapCheckouts(checkouts), total, nil
}

func (s *toolService) mapCheckouts(checkouts []model.Checkout) []CheckoutResponse {
	res := make([]CheckoutResponse, 0, len(checkouts))
	for i := range checkouts {
		res = append(res, s.mapCheckout(&checkouts[i]))
	}
	return res
}
