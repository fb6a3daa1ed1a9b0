package repository

import (
	"context"
	"time"

	"toolcrib/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckoutRepository interface {
	Create(ctx context.Context, checkout *model.Checkout) error
	FindOpenByTool(ctx context.Context, toolID uuid.UUID) (*model.Checkout, error)
	Close(ctx context.Context, id uuid.UUID, returnedAt time.Time) error
	ListByTool(ctx context.Context, toolID uuid.UUID, page, limit int) ([]model.Checkout, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, openOnly bool, page, limit int) ([]model.Checkout, int64, error)
	ListOpen(ctx context.Context, page, limit int) ([]model.Checkout, int64, error)
	CountOpen(ctx context.Context) (int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
}

type checkoutRepository struct {
	db *gorm.DB
}

func NewCheckoutRepository(db *gorm.DB) CheckoutRepository {
	return &checkoutRepository{db: db}
}

func (r *checkoutRepository) Create(ctx context.Context, checkout *model.Checkout) error {
	return GetDB(ctx, r.db).Create(checkout).Error
}

func (r *checkoutRepository) FindOpenByTool(ctx context.Context, toolID uuid.UUID) (*model.Checkout, error) {
	var checkout model.Checkout
	err := GetDB(ctx, r.db).
		Where("tool_id = ? AND returned_at IS NULL", toolID).
		First(&checkout).Error
	if err != nil {
		return nil, err
	}
	return &checkout, nil
}

func (r *checkoutRepository) Close(ctx context.Context, id uuid.UUID, returnedAt time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Checkout{}).
		Where("id = ?", id).
		Update("returned_at", returnedAt).Error
}

func (r *checkoutRepository) ListByTool(ctx context.Context, toolID uuid.UUID, page, limit int) ([]model.Checkout, int64, error) {
	q := GetDB(ctx, r.db).Model(&model.Checkout{}).Where("tool_id = ?", toolID)
	return r.paged(q, page, limit)
}

func (r *checkoutRepository) ListByUser(ctx context.Context, userID uuid.UUID, openOnly bool, page, limit int) ([]model.Checkout, int64, error) {
	q := GetDB(ctx, r.db).Model(&model.Checkout{}).Where("user_id = ?", userID)
	if openOnly {
		q = q.Where("returned_at IS NULL")
	}
	return r.paged(q, page, limit)
}

func (r *checkoutRepository) ListOpen(ctx context.Context, page, limit int) ([]model.Checkout, int64, error) {
	q := GetDB(ctx, r.db).Model(&model.Checkout{}).Where("returned_at IS NULL")
	return r.paged(q, page, limit)
}

func (r *checkoutRepository) paged(q *gorm.DB, page, limit int) ([]model.Checkout, int64, error) {
	var checkouts []model.Checkout
	var total int64

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Preload("Tool").Order("checked_out_at desc").
		Offset(offset).Limit(limit).Find(&checkouts).Error; err != nil {
		return nil, 0, err
	}

	return checkouts, total, nil
}

func (r *checkoutRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Checkout{}).
		Where("returned_at IS NULL").Count(&count).Error
	return count, err
}

func (r *checkoutRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Checkout{}).
		Where("returned_at IS NULL AND expected_return_date IS NOT NULL AND expected_return_date < ?", now).
		Count(&count).Error
	return count, err
}
