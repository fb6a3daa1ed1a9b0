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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateChemicalRequest struct {
	PartNumber     string          `json:"part_number" binding:"required"`
	LotNumber      string          `json:"lot_number" binding:"required"`
	Description    string          `json:"description" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Unit           string          `json:"unit" binding:"required"`
	ExpirationDate *time.Time      `json:"expiration_date"`
	Warehouse      string          `json:"warehouse"`
}

type UpdateChemicalRequest struct {
	Description    string           `json:"description"`
	Quantity       *decimal.Decimal `json:"quantity"`
	Unit           string           `json:"unit"`
	ExpirationDate *time.Time       `json:"expiration_date"`
	Warehouse      string           `json:"warehouse"`
}

type IssueChemicalRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Note     string          `json:"note"`
}

type ChemicalService interface {
	CreateChemical(ctx context.Context, actorID string, req CreateChemicalRequest) (*model.Chemical, error)
	GetChemical(ctx context.Context, id string) (*model.Chemical, error)
	ListChemicals(ctx context.Context, filter repository.ChemicalFilter, page, limit int) ([]model.Chemical, int64, error)
	UpdateChemical(ctx context.Context, actorID, id string, req UpdateChemicalRequest) (*model.Chemical, error)
	DeleteChemical(ctx context.Context, actorID, id string) error
	IssueChemical(ctx context.Context, actorID, id string, req IssueChemicalRequest) (*model.Chemical, error)
	ExpiringChemicals(ctx context.Context, withinDays int) ([]model.Chemical, error)
}

type chemicalService struct {
	repo      repository.ChemicalRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       *ws.Hub
	now       func() time.Time
}

func NewChemicalService(
	repo repository.ChemicalRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ChemicalService {
	return &chemicalService{repo: repo, auditRepo: auditRepo, txManager: txManager, hub: hub, now: time.Now}
}

// chemicalStatus derives the stored status from quantity and expiration.
// Expiration wins over depletion so expired stock is never silently reused.
func chemicalStatus(c *model.Chemical, now time.Time) string {
	if c.Expired(now) {
		return model.ChemicalExpired
	}
	if c.Quantity.LessThanOrEqual(decimal.Zero) {
		return model.ChemicalDepleted
	}
	return model.ChemicalAvailable
}

func (s *chemicalService) findChemical(ctx context.Context, id string) (*model.Chemical, error) {
	chemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid chemical id: %w", err)
	}

	chem, err := s.repo.FindByID(ctx, chemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("chemical not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return chem, nil
}

func (s *chemicalService) publishChemicalEvent(chem *model.Chemical) {
	s.hub.Publish(ws.EventChemicalChanged, map[string]interface{}{
		"id":     chem.ID.String(),
		"status": chem.Status,
	})
}

func (s *chemicalService) CreateChemical(ctx context.Context, actorID string, req CreateChemicalRequest) (*model.Chemical, error) {
	if req.Quantity.IsNegative() {
		return nil, errors.New("quantity cannot be negative")
	}

	chem := &model.Chemical{
		PartNumber:     req.PartNumber,
		LotNumber:      req.LotNumber,
		Description:    req.Description,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		ExpirationDate: req.ExpirationDate,
		Warehouse:      req.Warehouse,
	}
	chem.Status = chemicalStatus(chem, s.now())

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, chem); err != nil {
			return fmt.Errorf("failed to create chemical: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionCreateChemical,
			EntityID:   chem.ID.String(),
			EntityName: chem.PartNumber + " / " + chem.LotNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishChemicalEvent(chem)
	return chem, nil
}

func (s *chemicalService) GetChemical(ctx context.Context, id string) (*model.Chemical, error) {
	return s.findChemical(ctx, id)
}

func (s *chemicalService) ListChemicals(ctx context.Context, filter repository.ChemicalFilter, page, limit int) ([]model.Chemical, int64, error) {
	return s.repo.List(ctx, filter, page, limit)
}

func (s *chemicalService) UpdateChemical(ctx context.Context, actorID, id string, req UpdateChemicalRequest) (*model.Chemical, error) {
	chem, err := s.findChemical(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		chem.Description = req.Description
	}
	if req.Quantity != nil {
		if req.Quantity.IsNegative() {
			return nil, errors.New("quantity cannot be negative")
		}
		chem.Quantity = *req.Quantity
	}
	if req.Unit != "" {
		chem.Unit = req.Unit
	}
	if req.ExpirationDate != nil {
		chem.ExpirationDate = req.ExpirationDate
	}
	if req.Warehouse != "" {
		chem.Warehouse = req.Warehouse
	}
	chem.Status = chemicalStatus(chem, s.now())

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, chem); err != nil {
			return fmt.Errorf("failed to update chemical: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateChemical,
			EntityID:   chem.ID.String(),
			EntityName: chem.PartNumber + " / " + chem.LotNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishChemicalEvent(chem)
	return chem, nil
}

func (s *chemicalService) DeleteChemical(ctx context.Context, actorID, id string) error {
	chem, err := s.findChemical(ctx, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, chem.ID); err != nil {
			return fmt.Errorf("failed to delete chemical: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionDeleteChemical,
			EntityID:   chem.ID.String(),
			EntityName: chem.PartNumber + " / " + chem.LotNumber,
			Details:    `{"deleted": true}`,
		})
	})
}

// IssueChemical deducts a fractional quantity from the lot. Expired lots
// cannot be issued.
func (s *chemicalService) IssueChemical(ctx context.Context, actorID, id string, req IssueChemicalRequest) (*model.Chemical, error) {
	chem, err := s.findChemical(ctx, id)
	if err != nil {
		return nil, err
	}

	if !req.Quantity.IsPositive() {
		return nil, errors.New("issue quantity must be positive")
	}
	if chem.Expired(s.now()) {
		return nil, errors.New("cannot issue an expired lot")
	}
	if req.Quantity.GreaterThan(chem.Quantity) {
		return nil, fmt.Errorf("cannot issue %s %s: only %s on hand",
			req.Quantity.String(), chem.Unit, chem.Quantity.String())
	}

	chem.Quantity = chem.Quantity.Sub(req.Quantity)
	chem.Status = chemicalStatus(chem, s.now())

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, chem); err != nil {
			return fmt.Errorf("failed to update chemical: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"issued":    req.Quantity.String(),
			"remaining": chem.Quantity.String(),
			"unit":      chem.Unit,
			"note":      req.Note,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionIssueChemical,
			EntityID:   chem.ID.String(),
			EntityName: chem.PartNumber + " / " + chem.LotNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishChemicalEvent(chem)
	return chem, nil
}

func (s *chemicalService) ExpiringChemicals(ctx context.Context, withinDays int) ([]model.Chemical, error) {
	if withinDays < 0 {
		withinDays = 0
	}
	cutoff := s.now().AddDate(0, 0, withinDays)
	return s.repo.ExpiringBefore(ctx, cutoff)
}
