package repository

import (
	"context"
	"time"

	"toolcrib/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChemicalFilter narrows List results. Zero values mean "no constraint".
type ChemicalFilter struct {
	Status    string
	Warehouse string
	Search    string
}

type ChemicalRepository interface {
	Create(ctx context.Context, chem *model.Chemical) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Chemical, error)
	List(ctx context.Context, filter ChemicalFilter, page, limit int) ([]model.Chemical, int64, error)
	Update(ctx context.Context, chem *model.Chemical) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExpiringBefore(ctx context.Context, cutoff time.Time) ([]model.Chemical, error)
}

type chemicalRepository struct {
	db *gorm.DB
}

func NewChemicalRepository(db *gorm.DB) ChemicalRepository {
	return &chemicalRepository{db: db}
}

func (r *chemicalRepository) Create(ctx context.Context, chem *model.Chemical) error {
	return GetDB(ctx, r.db).Create(chem).Error
}

func (r *chemicalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Chemical, error) {
	var chem model.Chemical
	if err := GetDB(ctx, r.db).First(&chem, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &chem, nil
}

func (r *chemicalRepository) List(ctx context.Context, filter ChemicalFilter, page, limit int) ([]model.Chemical, int64, error) {
	var chems []model.Chemical
	var total int64

	q := GetDB(ctx, r.db).Model(&model.Chemical{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Warehouse != "" {
		q = q.Where("warehouse = ?", filter.Warehouse)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("part_number ILIKE ? OR lot_number ILIKE ? OR description ILIKE ?", pattern, pattern, pattern)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Order("part_number asc, lot_number asc").Offset(offset).Limit(limit).Find(&chems).Error; err != nil {
		return nil, 0, err
	}

	return chems, total, nil
}

func (r *chemicalRepository) Update(ctx context.Context, chem *model.Chemical) error {
	return GetDB(ctx, r.db).Save(chem).Error
}

func (r *chemicalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Chemical{}).Error
}

func (r *chemicalRepository) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]model.Chemical, error) {
	var chems []model.Chemical
	err := GetDB(ctx, r.db).
		Where("status = ?", model.ChemicalAvailable).
		Where("expiration_date IS NOT NULL AND expiration_date <= ?", cutoff).
		Order("expiration_date asc").
		Find(&chems).Error
	return chems, err
}
