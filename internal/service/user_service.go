package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"toolcrib/internal/model"
	"toolcrib/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username     string `json:"username" binding:"required"`
	FullName     string `json:"full_name"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone"`
	Password     string `json:"password" binding:"required,min=6"`
	IsAdmin      bool   `json:"is_admin"`
	DepartmentID string `json:"department_id"`
}

type UpdateUserRequest struct {
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone"`
	DepartmentID string `json:"department_id"`
	IsAdmin      *bool  `json:"is_admin"`
}

type AssignRolesRequest struct {
	RoleIDs []string `json:"role_ids" binding:"required"`
}

// UserResponse returns User data without exposing sensitive fields
type UserResponse struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	FullName   string   `json:"full_name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	IsAdmin    bool     `json:"is_admin"`
	IsActive   bool     `json:"is_active"`
	Department string   `json:"department,omitempty"`
	Roles      []string `json:"roles"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, filter repository.UserFilter, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error)
	SetUserActive(ctx context.Context, actorID, id string, active bool) error
	DeleteUser(ctx context.Context, actorID, id string) error
	AssignRoles(ctx context.Context, actorID, id string, req AssignRolesRequest) (*UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	roleRepo  repository.RoleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) UserService {
	return &userService{repo: repo, roleRepo: roleRepo, auditRepo: auditRepo, txManager: txManager}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// mapUser converts the model into the API response shape
func mapUser(user *model.User) *UserResponse {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}

	dept := ""
	if user.Department != nil {
		dept = user.Department.Name
	}

	return &UserResponse{
		ID:         user.ID.String(),
		Username:   user.Username,
		FullName:   user.FullName,
		Email:      user.Email,
		Phone:      user.Phone,
		IsAdmin:    user.IsAdmin,
		IsActive:   user.IsActive,
		Department: dept,
		Roles:      roles,
		CreatedAt:  user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:  user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// auditActor parses the acting user's id for audit rows, tolerating blanks
// from unauthenticated or system contexts.
func auditActor(actorID string) *uuid.UUID {
	if parsed, err := uuid.Parse(actorID); err == nil {
		return &parsed
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error) {
	if !emailRegex.MatchString(req.Email) {
		return nil, errors.New("invalid email format")
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.New("username already exists")
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashedPassword),
		IsAdmin:  req.IsAdmin,
		IsActive: true,
	}

	if req.DepartmentID != "" {
		deptID, err := uuid.Parse(req.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("invalid department id: %w", err)
		}
		user.DepartmentID = &deptID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"username": req.Username,
			"email":    req.Email,
			"is_admin": req.IsAdmin,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionCreateUser,
			EntityID:   user.ID.String(),
			EntityName: user.Username,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	return mapUser(user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return mapUser(user), nil
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapUser(&users[i]))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
			return nil, errors.New("username already exists")
		}
		user.Username = req.Username
	}

	if req.Email != "" && req.Email != user.Email {
		if !emailRegex.MatchString(req.Email) {
			return nil, errors.New("invalid email format")
		}
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, errors.New("email already exists")
		}
		user.Email = req.Email
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}

	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}

	if req.DepartmentID != "" {
		deptID, err := uuid.Parse(req.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("invalid department id: %w", err)
		}
		user.DepartmentID = &deptID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionUpdateUser,
			EntityID:   user.ID.String(),
			EntityName: user.Username,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	return mapUser(user), nil
}

func (s *userService) SetUserActive(ctx context.Context, actorID, id string, active bool) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return errors.New("user not found")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SetActive(txCtx, userID, active); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]bool{"is_active": active})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionDeactivateUser,
			EntityID:   user.ID.String(),
			EntityName: user.Username,
			Details:    string(details),
		})
	})
}

func (s *userService) DeleteUser(ctx context.Context, actorID, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("user not found")
		}
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, userID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditActor(actorID),
			Action:     model.ActionDeleteUser,
			EntityID:   user.ID.String(),
			EntityName: user.Username,
		})
	})
}

func (s *userService) AssignRoles(ctx context.Context, actorID, id string, req AssignRolesRequest) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	roleIDs := make([]uuid.UUID, 0, len(req.RoleIDs))
	for _, raw := range req.RoleIDs {
		roleID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid role id %q: %w", raw, err)
		}
		roleIDs = append(roleIDs, roleID)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.ReplaceRoles(txCtx, userID, roleIDs); err != nil {
			return fmt.Errorf("failed to assign roles: %w", err)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditActor(actorID),
			Action:   model.ActionAssignRoles,
			EntityID: userID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return mapUser(user), nil
}
