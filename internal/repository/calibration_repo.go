package repository

import (
	"context"

	"toolcrib/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CalibrationRepository interface {
	Create(ctx context.Context, record *model.CalibrationRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CalibrationRecord, error)
	ListByTool(ctx context.Context, toolID uuid.UUID) ([]model.CalibrationRecord, error)
}

type calibrationRepository struct {
	db *gorm.DB
}

func NewCalibrationRepository(db *gorm.DB) CalibrationRepository {
	return &calibrationRepository{db: db}
}

func (r *calibrationRepository) Create(ctx context.Context, record *model.CalibrationRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *calibrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CalibrationRecord, error) {
	var record model.CalibrationRecord
	if err := GetDB(ctx, r.db).Preload("PerformedBy").First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *calibrationRepository) ListByTool(ctx context.Context, toolID uuid.UUID) ([]model.CalibrationRecord, error) {
	var records []model.CalibrationRecord
	err := GetDB(ctx, r.db).
		Where("tool_id = ?", toolID).
		Preload("PerformedBy").
		Order("performed_at desc").
		Find(&records).Error
	return records, err
}
