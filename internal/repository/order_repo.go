package repository

import (
	"context"
	"errors"
	"time"

	"toolcrib/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrVersionConflict means the caller presented a stale order version: another
// write landed between their read and this update.
var ErrVersionConflict = errors.New("order was modified by another request")

// OrderFilter narrows List results. Zero values mean "no constraint".
type OrderFilter struct {
	Status      string
	OrderType   string
	Priority    string
	RequesterID *uuid.UUID
	From        *time.Time
	To          *time.Time
	Search      string
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter, page, limit int) ([]model.Order, int64, error)
	// UpdateVersioned applies the order's new field values only if the stored
	// row still carries expectedVersion, bumping version by one. Returns
	// ErrVersionConflict on a stale write.
	UpdateVersioned(ctx context.Context, order *model.Order, expectedVersion int) error
	CountByStatus(ctx context.Context) (map[string]int64, error)

	CreateMessage(ctx context.Context, msg *model.OrderMessage) error
	FindMessage(ctx context.Context, id uuid.UUID) (*model.OrderMessage, error)
	ListMessages(ctx context.Context, orderID uuid.UUID) ([]model.OrderMessage, error)
	ListInbox(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]model.OrderMessage, int64, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := GetDB(ctx, r.db).
		Preload("Requester").
		Preload("Buyer").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter, page, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := GetDB(ctx, r.db).Model(&model.Order{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OrderType != "" {
		q = q.Where("order_type = ?", filter.OrderType)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.RequesterID != nil {
		q = q.Where("requester_id = ?", *filter.RequesterID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Preload("Requester").Preload("Buyer").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) UpdateVersioned(ctx context.Context, order *model.Order, expectedVersion int) error {
	res := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":          order.Title,
			"description":    order.Description,
			"order_type":     order.OrderType,
			"status":         order.Status,
			"priority":       order.Priority,
			"buyer_id":       order.BuyerID,
			"due_date":       order.DueDate,
			"estimated_cost": order.EstimatedCost,
			"document_path":  order.DocumentPath,
			"version":        expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	order.Version = expectedVersion + 1
	return nil
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := GetDB(ctx, r.db).Model(&model.Order{}).
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

func (r *orderRepository) CreateMessage(ctx context.Context, msg *model.OrderMessage) error {
	return GetDB(ctx, r.db).Create(msg).Error
}

func (r *orderRepository) FindMessage(ctx context.Context, id uuid.UUID) (*model.OrderMessage, error) {
	var msg model.OrderMessage
	if err := GetDB(ctx, r.db).First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *orderRepository) ListMessages(ctx context.Context, orderID uuid.UUID) ([]model.OrderMessage, error) {
	var msgs []model.OrderMessage
	err := GetDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Preload("Sender").
		Preload("Recipient").
		Order("created_at asc").
		Find(&msgs).Error
	return msgs, err
}

func (r *orderRepository) ListInbox(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]model.OrderMessage, int64, error) {
	var msgs []model.OrderMessage
	var total int64

	q := GetDB(ctx, r.db).Model(&model.OrderMessage{}).Where("recipient_id = ?", recipientID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Preload("Sender").Order("created_at desc").
		Offset(offset).Limit(limit).Find(&msgs).Error; err != nil {
		return nil, 0, err
	}

	return msgs, total, nil
}

func (r *orderRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.OrderMessage{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *orderRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.OrderMessage{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}
