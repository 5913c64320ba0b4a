package database

import (
	"log"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs auto-migration for all workflow models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Wing{},
		&model.ItemMaster{},
		&model.InventoryStock{},
		&model.InventoryLog{},
		&model.IssuanceRequest{},
		&model.RequestItem{},
		&model.AuditEntry{},
		&model.VerificationTask{},
		&model.IssuanceTransaction{},
		&model.StockAllocation{},
	)
}
