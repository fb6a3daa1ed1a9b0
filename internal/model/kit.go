package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KitItemStatus constants
const (
	KitItemStocked    = "stocked"
	KitItemIssued     = "issued"
	KitItemOutOfStock = "out_of_stock"
)

// Kit is a packaged set of boxes assembled for a given aircraft type.
type Kit struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	AircraftType string         `gorm:"type:varchar(100);not null;index" json:"aircraft_type"`
	Description  string         `gorm:"type:text" json:"description"`
	IsActive     bool           `gorm:"not null;default:true;index" json:"is_active"`
	Boxes        []KitBox       `gorm:"foreignKey:KitID" json:"boxes,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// KitBox is one physical box within a kit.
type KitBox struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	KitID     uuid.UUID `gorm:"type:uuid;not null;index" json:"kit_id"`
	BoxNumber int       `gorm:"not null" json:"box_number"`
	Label     string    `gorm:"type:varchar(255)" json:"label"`
	Items     []KitItem `gorm:"foreignKey:BoxID" json:"items,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KitItem is an expendable line inside a box, tracked by quantity.
type KitItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BoxID       uuid.UUID `gorm:"type:uuid;not null;index" json:"box_id"`
	PartNumber  string    `gorm:"type:varchar(100);not null" json:"part_number"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	Quantity    int       `gorm:"not null;default:0" json:"quantity"`
	MinQuantity int       `gorm:"not null;default:0" json:"min_quantity"`
	Status      string    `gorm:"type:varchar(20);not null;default:'stocked';index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
