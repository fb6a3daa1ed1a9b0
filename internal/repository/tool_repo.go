package repository

import (
	"context"
	"time"

	"toolcrib/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ToolFilter narrows List results. Zero values mean "no constraint".
type ToolFilter struct {
	Status    string
	Warehouse string
	Search    string
}

type ToolRepository interface {
	Create(ctx context.Context, tool *model.Tool) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tool, error)
	FindByToolNumber(ctx context.Context, toolNumber string) (*model.Tool, error)
	List(ctx context.Context, filter ToolFilter, page, limit int) ([]model.Tool, int64, error)
	Update(ctx context.Context, tool *model.Tool) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CalibrationDue(ctx context.Context, before time.Time) ([]model.Tool, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type toolRepository struct {
	db *gorm.DB
}

func NewToolRepository(db *gorm.DB) ToolRepository {
	return &toolRepository{db: db}
}

func (r *toolRepository) Create(ctx context.Context, tool *model.Tool) error {
	return GetDB(ctx, r.db).Create(tool).Error
}

func (r *toolRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tool, error) {
	var tool model.Tool
	if err := GetDB(ctx, r.db).First(&tool, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tool, nil
}

func (r *toolRepository) FindByToolNumber(ctx context.Context, toolNumber string) (*model.Tool, error) {
	var tool model.Tool
	if err := GetDB(ctx, r.db).First(&tool, "tool_number = ?", toolNumber).Error; err != nil {
		return nil, err
	}
	return &tool, nil
}

func (r *toolRepository) List(ctx context.Context, filter ToolFilter, page, limit int) ([]model.Tool, int64, error) {
	var tools []model.Tool
	var total int64

	q := GetDB(ctx, r.db).Model(&model.Tool{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Warehouse != "" {
		q = q.Where("warehouse = ?", filter.Warehouse)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("tool_number ILIKE ? OR serial_number ILIKE ? OR description ILIKE ?", pattern, pattern, pattern)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Order("tool_number asc").Offset(offset).Limit(limit).Find(&tools).Error; err != nil {
		return nil, 0, err
	}

	return tools, total, nil
}

func (r *toolRepository) Update(ctx context.Context, tool *model.Tool) error {
	return GetDB(ctx, r.db).Save(tool).Error
}

func (r *toolRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Tool{}).Where("id = ?", id).Update("status", status).Error
}

func (r *toolRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Tool{}).Error
}

// CalibrationDue returns calibrated tools whose next calibration falls before
// the given cutoff, overdue ones first.
func (r *toolRepository) CalibrationDue(ctx context.Context, before time.Time) ([]model.Tool, error) {
	var tools []model.Tool
	err := GetDB(ctx, r.db).
		Where("calibration_frequency_days > 0").
		Where("next_calibration_date IS NOT NULL AND next_calibration_date <= ?", before).
		Where("status <> ?", model.ToolStatusRetired).
		Order("next_calibration_date asc").
		Find(&tools).Error
	return tools, err
}

func (r *toolRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := GetDB(ctx, r.db).Model(&model.Tool{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
