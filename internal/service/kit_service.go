package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"toolcrib/internal/model"
	"toolcrib/internal/repository"
	ws "toolcrib/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateKitRequest struct {
	Name         string `json:"name" binding:"required"`
	AircraftType string `json:"aircraft_type" binding:"required"`
	Description  string `json:"description"`
}

type UpdateKitRequest struct {
	Name         string `json:"name"`
	AircraftType string `json:"aircraft_type"`
	Description  string `json:"description"`
}

type CreateKitBoxRequest struct {
	BoxNumber int    `json:"box_number" binding:"required,gte=1"`
	Label     string `json:"label"`
}

type CreateKitItemRequest struct {
	PartNumber  string `json:"part_number" binding:"required"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity" binding:"gte=0"`
	MinQuantity int    `json:"min_quantity" binding:"gte=0"`
}

type UpdateKitItemRequest struct {
	Description string `json:"description"`
	MinQuantity *int   `json:"min_quantity" binding:"omitempty,gte=0"`
}

type KitItemQuantityRequest struct {
	Quantity int    `json:"quantity" binding:"required,gte=1"`
	Note     string `json:"note"`
}

type KitService interface {
	CreateKit(ctx context.Context, actorID string, req CreateKitRequest) (*model.Kit, error)
	GetKit(ctx context.Context, id string) (*model.Kit, error)
	ListKits(ctx context.Context, aircraftType string, activeOnly bool, page, limit int) ([]model.Kit, int64, error)
	UpdateKit(ctx context.Context, actorID, id string, req UpdateKitRequest) (*model.Kit, error)
	SetKitActive(ctx context.Context, actorID, id string, active bool) error
	DeleteKit(ctx context.Context, actorID, id string) error

	AddBox(ctx context.Context, actorID, kitID string, req CreateKitBoxRequest) (*model.KitBox, error)
	RemoveBox(ctx context.Context, actorID, boxID string) error

	AddItem(ctx context.Context, actorID, boxID string, req CreateKitItemRequest) (*model.KitItem, error)
	UpdateItem(ctx context.Context, actorID, itemID string, req UpdateKitItemRequest) (*model.KitItem, error)
	RemoveItem(ctx context.Context, actorID, itemID string) error
	IssueItem(ctx context.Context, actorID, itemID string, req KitItemQuantityRequest) (*model.KitItem, error)
	RestockItem(ctx context.Context, actorID, itemID string, req KitItemQuantityRequest) (*model.KitItem, error)
}

type kitService struct {
	repo      repository.KitRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewKitService(
	repo repository.KitRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) KitService {
	return &kitService{repo: repo, auditRepo: auditRepo, txManager: txManager, hub: hub}
}

func (s *kitService) findKit(ctx context.Context, id string) (*model.Kit, error) {
	kitID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid kit id: %w", err)
	}

	kit, err := s.repo.FindByID(ctx, kitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("kit not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return kit, nil
}

func (s *kitService) publishKitEvent(kitID string) {
	s.hub.Publish(ws.EventKitChanged, map[string]interface{}{"id": kitID})
}

func (s *kitService) CreateKit(ctx context.Context, actorID string, req CreateKitRequest) (*model.Kit, error) {
	kit := &model.Kit{
		Name:         req.Name,
		AircraftType: req.AircraftType,
		Description:  req.Description,
		IsActive:     true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, kit); err != nil {
			return fmt.Errorf("failed to create kit: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionCreateKit,
			EntityID:   kit.ID.String(),
			EntityName: kit.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishKitEvent(kit.ID.String())
	return kit, nil
}

func (s *kitService) GetKit(ctx context.Context, id string) (*model.Kit, error) {
	return s.findKit(ctx, id)
}

func (s *kitService) ListKits(ctx context.Context, aircraftType string, activeOnly bool, page, limit int) ([]model.Kit, int64, error) {
	return s.repo.List(ctx, aircraftType, activeOnly, page, limit)
}

func (s *kitService) UpdateKit(ctx context.Context, actorID, id string, req UpdateKitRequest) (*model.Kit, error) {
	kit, err := s.findKit(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		kit.Name = req.Name
	}
	if req.AircraftType != "" {
		kit.AircraftType = req.AircraftType
	}
	if req.Description != "" {
		kit.Description = req.Description
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, kit); err != nil {
			return fmt.Errorf("failed to update kit: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateKit,
			EntityID:   kit.ID.String(),
			EntityName: kit.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishKitEvent(kit.ID.String())
	return kit, nil
}

func (s *kitService) SetKitActive(ctx context.Context, actorID, id string, active bool) error {
	kit, err := s.findKit(ctx, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SetActive(txCtx, kit.ID, active); err != nil {
			return fmt.Errorf("failed to update kit: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateKit,
			EntityID:   kit.ID.String(),
			EntityName: kit.Name,
			Details:    fmt.Sprintf(`{"active": %t}`, active),
		})
	})
	if err != nil {
		return err
	}

	s.publishKitEvent(kit.ID.String())
	return nil
}

func (s *kitService) DeleteKit(ctx context.Context, actorID, id string) error {
	kit, err := s.findKit(ctx, id)
	if err != nil {
		return err
	}
	if kit.IsActive {
		return errors.New("kit must be deactivated before deletion")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, kit.ID); err != nil {
			return fmt.Errorf("failed to delete kit: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionDeleteKit,
			EntityID:   kit.ID.String(),
			EntityName: kit.Name,
			Details:    `{"deleted": true}`,
		})
	})
	if err != nil {
		return err
	}

	s.publishKitEvent(kit.ID.String())
	return nil
}

func (s *kitService) AddBox(ctx context.Context, actorID, kitID string, req CreateKitBoxRequest) (*model.KitBox, error) {
	kit, err := s.findKit(ctx, kitID)
	if err != nil {
		return nil, err
	}

	for _, b := range kit.Boxes {
		if b.BoxNumber == req.BoxNumber {
			return nil, fmt.Errorf("box %d already exists in kit", req.BoxNumber)
		}
	}

	box := &model.KitBox{
		KitID:     kit.ID,
		BoxNumber: req.BoxNumber,
		Label:     req.Label,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateBox(txCtx, box); err != nil {
			return fmt.Errorf("failed to create box: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateKit,
			EntityID:   kit.ID.String(),
			EntityName: kit.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishKitEvent(kit.ID.String())
	return box, nil
}

func (s *kitService) RemoveBox(ctx context.Context, actorID, boxID string) error {
	id, err := uuid.Parse(boxID)
	if err != nil {
		return fmt.Errorf("invalid box id: %w", err)
	}

	box, err := s.repo.FindBox(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("box not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteBox(txCtx, box.ID); err != nil {
			return fmt.Errorf("failed to delete box: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateKit,
			EntityID:   box.KitID.String(),
			EntityName: fmt.Sprintf("box %d", box.BoxNumber),
			Details:    `{"box_deleted": true}`,
		})
	})
	if err != nil {
		return err
	}

	s.publishKitEvent(box.KitID.String())
	return nil
}

// issuedItemStatus derives the status after an issuance: any remaining
// balance is issued, zero is out of stock.
func issuedItemStatus(quantity int) string {
	if quantity <= 0 {
		return model.KitItemOutOfStock
	}
	return model.KitItemIssued
}

// stockedItemStatus derives the status after stock is added or set.
func stockedItemStatus(quantity int) string {
	if quantity <= 0 {
		return model.KitItemOutOfStock
	}
	return model.KitItemStocked
}

func (s *kitService) AddItem(ctx context.Context, actorID, boxID string, req CreateKitItemRequest) (*model.KitItem, error) {
	id, err := uuid.Parse(boxID)
	if err != nil {
		return nil, fmt.Errorf("invalid box id: %w", err)
	}

	box, err := s.repo.FindBox(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("box not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	item := &model.KitItem{
		BoxID:       box.ID,
		PartNumber:  req.PartNumber,
		Description: req.Description,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
		Status:      stockedItemStatus(req.Quantity),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateKit,
			EntityID:   box.KitID.String(),
			EntityName: req.PartNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishKitEvent(box.KitID.String())
	return item, nil
}

func (s *kitService) findItem(ctx context.Context, itemID string) (*model.KitItem, *model.KitBox, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid item id: %w", err)
	}

	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.New("item not found")
		}
		return nil, nil, fmt.Errorf("database error: %w", err)
	}

	box, err := s.repo.FindBox(ctx, item.BoxID)
	if err != nil {
		return nil, nil, fmt.Errorf("database error: %w", err)
	}
	return item, box, nil
}

func (s *kitService) UpdateItem(ctx context.Context, actorID, itemID string, req UpdateKitItemRequest) (*model.KitItem, error) {
	item, box, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		item.Description = req.Description
	}
	if req.MinQuantity != nil {
		item.MinQuantity = *req.MinQuantity
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateKit,
			EntityID:   box.KitID.String(),
			EntityName: item.PartNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishKitEvent(box.KitID.String())
	return item, nil
}

func (s *kitService) RemoveItem(ctx context.Context, actorID, itemID string) error {
	item, box, err := s.findItem(ctx, itemID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteItem(txCtx, item.ID); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateKit,
			EntityID:   box.KitID.String(),
			EntityName: item.PartNumber,
			Details:    `{"item_deleted": true}`,
		})
	})
	if err != nil {
		return err
	}

	s.publishKitEvent(box.KitID.String())
	return nil
}

// IssueItem deducts quantity from an expendable line. Any issuance that
// leaves stock marks the item issued; reaching zero marks it out of stock.
func (s *kitService) IssueItem(ctx context.Context, actorID, itemID string, req KitItemQuantityRequest) (*model.KitItem, error) {
	item, box, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if req.Quantity > item.Quantity {
		return nil, fmt.Errorf("cannot issue %d: only %d in stock", req.Quantity, item.Quantity)
	}

	item.Quantity -= req.Quantity
	item.Status = issuedItemStatus(item.Quantity)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"issued":    req.Quantity,
			"remaining": item.Quantity,
			"note":      req.Note,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionIssueKitItem,
			EntityID:   item.ID.String(),
			EntityName: item.PartNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishKitEvent(box.KitID.String())
	return item, nil
}

func (s *kitService) RestockItem(ctx context.Context, actorID, itemID string, req KitItemQuantityRequest) (*model.KitItem, error) {
	item, box, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item.Quantity += req.Quantity
	item.Status = stockedItemStatus(item.Quantity)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"restocked": req.Quantity,
			"on_hand":   item.Quantity,
			"note":      req.Note,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionRestockKitItem,
			EntityID:   item.ID.String(),
			EntityName: item.PartNumber,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishKitEvent(box.KitID.String())
	return item, nil
}
