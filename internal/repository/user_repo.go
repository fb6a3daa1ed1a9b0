package repository

import (
	"context"

	"toolcrib/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFilter narrows List results. Zero values mean "no constraint".
type UserFilter struct {
	DepartmentID *uuid.UUID
	ActiveOnly   bool
	Search       string
}

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, filter UserFilter, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Department").Preload("Roles").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Roles").First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	q := GetDB(ctx, r.db).Model(&model.User{})
	if filter.DepartmentID != nil {
		q = q.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("username ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Preload("Department").Preload("Roles").
		Order("username asc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.User{}).Error
}

func (r *userRepository) ReplaceRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)
	var user model.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	var roles []model.Role
	if len(roleIDs) > 0 {
		if err := db.Where("id IN ?", roleIDs).Find(&roles).Error; err != nil {
			return err
		}
	}

	return db.Model(&user).Association("Roles").Replace(roles)
}
