package model

import (
	"time"

	"github.com/google/uuid"
)

// VerificationTask status constants
const (
	VerificationForwarded = "forwarded"
	VerifiedAvailable     = "verified_available"
	VerifiedPartial       = "verified_partial"
	VerifiedUnavailable   = "verified_unavailable"
)

// Verification result classifications submitted by the store keeper
const (
	ClassificationAvailable   = "available"
	ClassificationPartial     = "partial"
	ClassificationUnavailable = "unavailable"
)

// TerminalVerification reports whether a task status accepts no further result
func TerminalVerification(status string) bool {
	return status != VerificationForwarded
}

// VerificationTask is a physical stock count requested from a store keeper to
// resolve uncertain availability. It references (never owns) the originating
// request item; the result feeds back into the approval flow as an input, it
// does not resolve the item by itself.
type VerificationTask struct {
	ID                  uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	RequestItemID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"request_item_id"`
	RequestItem         *RequestItem `gorm:"foreignKey:RequestItemID" json:"request_item,omitempty"`
	RequestID           uuid.UUID    `gorm:"type:uuid;not null;index" json:"request_id"`
	Status              string       `gorm:"type:varchar(30);not null;default:'forwarded';index" json:"verification_status"`
	SystemWingQuantity  int          `gorm:"type:int;not null;default:0" json:"system_wing_quantity"`  // Resolver belief at forward time
	SystemAdminQuantity int          `gorm:"type:int;not null;default:0" json:"system_admin_quantity"` // Resolver belief at forward time
	PhysicalCount       *int         `gorm:"type:int" json:"physical_count"`
	AvailableQuantity   *int         `gorm:"type:int" json:"available_quantity"`
	ForwardedByID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"forwarded_by"`
	ForwardedToID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"forwarded_to"`
	VerifiedByID        *uuid.UUID   `gorm:"type:uuid" json:"verified_by"`
	Notes               string       `gorm:"type:text" json:"notes"`
	CreatedAt           time.Time    `json:"created_at"`
	VerifiedAt          *time.Time   `json:"verified_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}
