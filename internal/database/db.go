package database

import (
	"log"

	"toolcrib/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.Department{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Tool{},
		&model.Checkout{},
		&model.CalibrationRecord{},
		&model.Kit{},
		&model.KitBox{},
		&model.KitItem{},
		&model.Chemical{},
		&model.Order{},
		&model.OrderMessage{},
		&model.AuditLog{},
		&model.Setting{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
