package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ChemicalStatus constants
const (
	ChemicalAvailable = "available"
	ChemicalExpired   = "expired"
	ChemicalDepleted  = "depleted"
)

// Chemical represents a lot-tracked consumable chemical on the shelf.
// Quantities are decimals because chemicals are issued in fractional units
// (liters, ounces, tubes).
type Chemical struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PartNumber     string          `gorm:"type:varchar(100);not null;index" json:"part_number"`
	LotNumber      string          `gorm:"type:varchar(100);not null;index" json:"lot_number"`
	Description    string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity       decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"quantity"`
	Unit           string          `gorm:"type:varchar(20);not null" json:"unit"`
	ExpirationDate *time.Time      `gorm:"index" json:"expiration_date"`
	Status         string          `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	Warehouse      string          `gorm:"type:varchar(100);index" json:"warehouse"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Expired reports whether the chemical's lot is past its expiration date.
func (c *Chemical) Expired(now time.Time) bool {
	return c.ExpirationDate != nil && c.ExpirationDate.Before(now)
}
