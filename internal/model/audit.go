package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit action constants
const (
	ActionSubmitted = "submitted"
	ActionApproved  = "approved"
	ActionRejected  = "rejected"
	ActionForwarded = "forwarded"
	ActionPending   = "pending"
	ActionVerified  = "verified"
)

// AuditEntry is one immutable record of an action taken against a request or
// one of its items. Entries are only ever appended; Seq is strictly
// increasing per request and is the ordering authority (not wall-clock time).
// The current status of a request and its items is a pure function of the
// ordered entry list.
type AuditEntry struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_request_seq,unique" json:"request_id"`
	Seq           int        `gorm:"type:int;not null;index:idx_audit_request_seq,unique" json:"seq"`
	ItemID        *uuid.UUID `gorm:"type:uuid;index" json:"item_id"` // Nil for request-level entries
	Action        string     `gorm:"type:varchar(20);not null;index" json:"action"`
	Decision      string     `gorm:"type:varchar(30)" json:"decision"` // Resulting decision type for item-scoped entries
	ActorID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"actor_id"`
	ActorRole     string     `gorm:"type:varchar(50);not null" json:"actor_role"`
	Quantity      *int       `gorm:"type:int" json:"quantity"` // Approved or verified quantity carried by the entry
	Comments      string     `gorm:"type:text" json:"comments"`
	ForwardedToID *uuid.UUID `gorm:"type:uuid" json:"forwarded_to_id"`
	TargetLevel   string     `gorm:"type:varchar(20)" json:"target_level"` // Owning level after a forward
	OccurredAt    time.Time  `gorm:"index" json:"occurred_at"`
}
