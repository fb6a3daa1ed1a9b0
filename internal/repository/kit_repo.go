package repository

import (
	"context"

	"toolcrib/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KitRepository interface {
	Create(ctx context.Context, kit *model.Kit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Kit, error)
	List(ctx context.Context, aircraftType string, activeOnly bool, page, limit int) ([]model.Kit, int64, error)
	Update(ctx context.Context, kit *model.Kit) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateBox(ctx context.Context, box *model.KitBox) error
	FindBox(ctx context.Context, id uuid.UUID) (*model.KitBox, error)
	DeleteBox(ctx context.Context, id uuid.UUID) error

	CreateItem(ctx context.Context, item *model.KitItem) error
	FindItem(ctx context.Context, id uuid.UUID) (*model.KitItem, error)
	UpdateItem(ctx context.Context, item *model.KitItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	CountOutOfStock(ctx context.Context) (int64, error)
}

type kitRepository struct {
	db *gorm.DB
}

func NewKitRepository(db *gorm.DB) KitRepository {
	return &kitRepository{db: db}
}

func (r *kitRepository) Create(ctx context.Context, kit *model.Kit) error {
	return GetDB(ctx, r.db).Create(kit).Error
}

func (r *kitRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Kit, error) {
	var kit model.Kit
	err := GetDB(ctx, r.db).
		Preload("Boxes", func(db *gorm.DB) *gorm.DB { return db.Order("box_number asc") }).
		Preload("Boxes.Items", func(db *gorm.DB) *gorm.DB { return db.Order("part_number asc") }).
		First(&kit, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &kit, nil
}

func (r *kitRepository) List(ctx context.Context, aircraftType string, activeOnly bool, page, limit int) ([]model.Kit, int64, error) {
	var kits []model.Kit
	var total int64

	q := GetDB(ctx, r.db).Model(&model.Kit{})
	if aircraftType != "" {
		q = q.Where("aircraft_type = ?", aircraftType)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Preload("Boxes").Preload("Boxes.Items").
		Order("name asc").Offset(offset).Limit(limit).Find(&kits).Error; err != nil {
		return nil, 0, err
	}

	return kits, total, nil
}

func (r *kitRepository) Update(ctx context.Context, kit *model.Kit) error {
	return GetDB(ctx, r.db).Save(kit).Error
}

func (r *kitRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return GetDB(ctx, r.db).Model(&model.Kit{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *kitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Kit{}).Error
}

func (r *kitRepository) CreateBox(ctx context.Context, box *model.KitBox) error {
	return GetDB(ctx, r.db).Create(box).Error
}

func (r *kitRepository) FindBox(ctx context.Context, id uuid.UUID) (*model.KitBox, error) {
	var box model.KitBox
	if err := GetDB(ctx, r.db).Preload("Items").First(&box, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &box, nil
}

func (r *kitRepository) DeleteBox(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("box_id = ?", id).Delete(&model.KitItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.KitBox{}).Error
}

func (r *kitRepository) CreateItem(ctx context.Context, item *model.KitItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *kitRepository) FindItem(ctx context.Context, id uuid.UUID) (*model.KitItem, error) {
	var item model.KitItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *kitRepository) UpdateItem(ctx context.Context, item *model.KitItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *kitRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.KitItem{}).Error
}

func (r *kitRepository) CountOutOfStock(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.KitItem{}).
		Where("status = ?", model.KitItemOutOfStock).Count(&count).Error
	return count, err
}
