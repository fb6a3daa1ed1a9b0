package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"toolcrib/internal/model"
	"toolcrib/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateDepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateDepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type DepartmentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	MemberCount int64  `json:"member_count"`
}

type DepartmentService interface {
	CreateDepartment(ctx context.Context, actorID string, req CreateDepartmentRequest) (*DepartmentResponse, error)
	GetDepartment(ctx context.Context, id string) (*DepartmentResponse, error)
	ListDepartments(ctx context.Context, activeOnly bool) ([]DepartmentResponse, error)
	UpdateDepartment(ctx context.Context, actorID, id string, req UpdateDepartmentRequest) (*DepartmentResponse, error)
	SetDepartmentActive(ctx context.Context, actorID, id string, active bool) error
	DeleteDepartment(ctx context.Context, actorID, id string) error
}

type departmentService struct {
	repo      repository.DepartmentRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewDepartmentService(
	repo repository.DepartmentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) DepartmentService {
	return &departmentService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

func (s *departmentService) mapDepartment(ctx context.Context, d *model.Department) *DepartmentResponse {
	count, _ := s.repo.CountMembers(ctx, d.ID)
	return &DepartmentResponse{
		ID:          d.ID.String(),
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
		MemberCount: count,
	}
}

func (s *departmentService) findDepartment(ctx context.Context, id string) (*model.Department, error) {
	deptID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid department id: %w", err)
	}

	dept, err := s.repo.FindByID(ctx, deptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("department not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return dept, nil
}

func (s *departmentService) CreateDepartment(ctx context.Context, actorID string, req CreateDepartmentRequest) (*DepartmentResponse, error) {
	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, errors.New("department name already exists")
	}

	dept := &model.Department{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, dept); err != nil {
			return fmt.Errorf("failed to create department: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionCreateDepartment,
			EntityID:   dept.ID.String(),
			EntityName: dept.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.mapDepartment(ctx, dept), nil
}

func (s *departmentService) GetDepartment(ctx context.Context, id string) (*DepartmentResponse, error) {
	dept, err := s.findDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.mapDepartment(ctx, dept), nil
}

func (s *departmentService) ListDepartments(ctx context.Context, activeOnly bool) ([]DepartmentResponse, error) {
	depts, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	res := make([]DepartmentResponse, 0, len(depts))
	for i := range depts {
		res = append(res, *s.mapDepartment(ctx, &depts[i]))
	}
	return res, nil
}

func (s *departmentService) UpdateDepartment(ctx context.Context, actorID, id string, req UpdateDepartmentRequest) (*DepartmentResponse, error) {
	dept, err := s.findDepartment(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" && req.Name != dept.Name {
		if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
			return nil, errors.New("department name already exists")
		}
		dept.Name = req.Name
	}
	if req.Description != "" {
		dept.Description = req.Description
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, dept); err != nil {
			return fmt.Errorf("failed to update department: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateDepartment,
			EntityID:   dept.ID.String(),
			EntityName: dept.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.mapDepartment(ctx, dept), nil
}

func (s *departmentService) SetDepartmentActive(ctx context.Context, actorID, id string, active bool) error {
	dept, err := s.findDepartment(ctx, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SetActive(txCtx, dept.ID, active); err != nil {
			return fmt.Errorf("failed to update department: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionDeactivateDepartment,
			EntityID:   dept.ID.String(),
			EntityName: dept.Name,
			Details:    fmt.Sprintf(`{"active": %t}`, active),
		})
	})
}

// DeleteDepartment hard-deletes an empty department. Departments with
// members can only be deactivated.
func (s *departmentService) DeleteDepartment(ctx context.Context, actorID, id string) error {
	dept, err := s.findDepartment(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountMembers(ctx, dept.ID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("department has %d members; deactivate it instead", count)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, dept.ID); err != nil {
			return fmt.Errorf("failed to delete department: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionDeleteDepartment,
			EntityID:   dept.ID.String(),
			EntityName: dept.Name,
			Details:    `{"deleted": true}`,
		})
	})
}
