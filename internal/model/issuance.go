package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IssuanceTransaction status constants
const (
	TransactionIssued = "issued"
)

// IssuanceTransaction records the physical hand-out of approved stock by a
// store keeper. Created only after the approval side reached a terminal
// APPROVE_FROM_STOCK decision; this is the step that decrements stock pools.
type IssuanceTransaction struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"request_id"`
	IssuedByID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"issued_by"`
	Status        string            `gorm:"type:varchar(20);not null;default:'issued'" json:"transaction_status"`
	TotalQuantity int               `gorm:"type:int;not null" json:"total_quantity"`
	TotalValue    decimal.Decimal   `gorm:"type:decimal(14,4);not null;default:0" json:"total_value"`
	Notes         string            `gorm:"type:text" json:"notes"`
	Allocations   []StockAllocation `gorm:"foreignKey:TransactionID" json:"allocations"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// StockAllocation is one issued line within an IssuanceTransaction, tied to
// the stock pool it was deducted from.
type StockAllocation struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"transaction_id"`
	RequestItemID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_item_id"`
	ItemMasterID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_master_id"`
	WingID         *uuid.UUID      `gorm:"type:uuid" json:"wing_id"` // Pool deducted: wing row or NULL admin row
	IssuedQuantity int             `gorm:"type:int;not null" json:"issued_quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"unit_price"`
	LineValue      decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"line_value"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
