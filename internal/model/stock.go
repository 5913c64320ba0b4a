package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ItemMaster status constants
const (
	ItemStatusActive   = "Active"
	ItemStatusInactive = "Inactive"
)

// Stock status annotation for search results
const (
	StockStatusAvailable  = "Available"
	StockStatusLow        = "Low Stock"
	StockStatusOutOfStock = "Out of Stock"
)

// ItemMaster is the catalog entry for a stockable inventory item
type ItemMaster struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ItemCode     string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"item_code"`
	Nomenclature string          `gorm:"type:varchar(500);not null" json:"nomenclature"`
	Description  string          `gorm:"type:text" json:"description"`
	Unit         string          `gorm:"type:varchar(50)" json:"unit"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"unit_price"`
	Status       string          `gorm:"type:varchar(20);not null;default:'Active';index" json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// InventoryStock is one stock pool row for an item. WingID set = wing-local
// pool; WingID NULL = admin (central) pool.
type InventoryStock struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ItemMasterID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_item_wing,unique" json:"item_master_id"`
	ItemMaster        ItemMaster `gorm:"foreignKey:ItemMasterID" json:"-"`
	WingID            *uuid.UUID `gorm:"type:uuid;index:idx_stock_item_wing,unique" json:"wing_id"`
	AvailableQuantity int        `gorm:"type:int;not null;default:0" json:"available_quantity"`
	ReservedQuantity  int        `gorm:"type:int;not null;default:0" json:"reserved_quantity"`
	MinimumStockLevel int        `gorm:"type:int;not null;default:0" json:"minimum_stock_level"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// InventoryLog type constants
const (
	LogTypeDeduction = "DEDUCTION"
	LogTypeAddition  = "ADDITION"
)

// InventoryLog records every stock quantity change strictly, with before/after
// snapshots so a pool's history can be replayed.
type InventoryLog struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ItemMasterID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_master_id"`
	WingID          *uuid.UUID      `gorm:"type:uuid;index" json:"wing_id"`
	LogType         string          `gorm:"type:varchar(20);not null" json:"log_type"` // DEDUCTION, ADDITION
	QuantityBefore  int             `gorm:"type:int;not null" json:"quantity_before"`
	QuantityAfter   int             `gorm:"type:int;not null" json:"quantity_after"`
	QuantityChanged int             `gorm:"type:int;not null" json:"quantity_changed"`
	ValueChanged    decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"value_changed"`
	UserID          *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	ReferenceType   string          `gorm:"type:varchar(30)" json:"reference_type"` // REQUEST, ISSUANCE
	ReferenceID     *uuid.UUID      `gorm:"type:uuid;index" json:"reference_id"`
	Description     string          `gorm:"type:text" json:"description"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
}
