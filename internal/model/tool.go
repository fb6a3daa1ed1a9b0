package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ToolStatus constants
const (
	ToolStatusAvailable   = "available"
	ToolStatusCheckedOut  = "checked_out"
	ToolStatusMaintenance = "maintenance"
	ToolStatusRetired     = "retired"
)

// Tool represents a serialized tool or piece of equipment in the crib.
type Tool struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ToolNumber   string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"tool_number"`
	SerialNumber string    `gorm:"type:varchar(100);index" json:"serial_number"`
	LotNumber    string    `gorm:"type:varchar(100)" json:"lot_number"`
	Description  string    `gorm:"type:varchar(255);not null" json:"description"`
	Status       string    `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	Warehouse    string    `gorm:"type:varchar(100);index" json:"warehouse"`
	// Calibration metadata. A zero frequency means the tool is not calibrated.
	CalibrationFrequencyDays int            `gorm:"default:0" json:"calibration_frequency_days"`
	LastCalibrationDate      *time.Time     `json:"last_calibration_date"`
	NextCalibrationDate      *time.Time     `gorm:"index" json:"next_calibration_date"`
	CreatedAt                time.Time      `json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
	DeletedAt                gorm.DeletedAt `gorm:"index" json:"-"`
}

// Checkout records a tool being issued to a user and (eventually) returned.
type Checkout struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ToolID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"tool_id"`
	Tool               Tool       `gorm:"foreignKey:ToolID" json:"tool,omitempty"`
	UserID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User               User       `gorm:"foreignKey:UserID" json:"-"`
	CheckedOutAt       time.Time  `gorm:"not null;index" json:"checked_out_at"`
	ExpectedReturnDate *time.Time `json:"expected_return_date"`
	ReturnedAt         *time.Time `gorm:"index" json:"returned_at"`
	Note               string     `gorm:"type:varchar(255)" json:"note,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Overdue reports whether an open checkout is past its expected return date.
func (c *Checkout) Overdue(now time.Time) bool {
	return c.ReturnedAt == nil && c.ExpectedReturnDate != nil && c.ExpectedReturnDate.Before(now)
}

// CalibrationResult constants
const (
	CalibrationPass = "pass"
	CalibrationFail = "fail"
)

// CalibrationRecord stores one calibration event for a tool, including the
// uploaded certificate's storage path.
type CalibrationRecord struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ToolID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"tool_id"`
	Tool            Tool       `gorm:"foreignKey:ToolID" json:"-"`
	PerformedAt     time.Time  `gorm:"not null;index" json:"performed_at"`
	PerformedByID   *uuid.UUID `gorm:"type:uuid" json:"performed_by_id"`
	PerformedBy     *User      `gorm:"foreignKey:PerformedByID" json:"performed_by,omitempty"`
	Result          string     `gorm:"type:varchar(10);not null" json:"result"`
	CertificatePath string     `gorm:"type:varchar(512)" json:"certificate_path,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
