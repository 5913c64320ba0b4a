package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestType enum constants
const (
	RequestTypeIndividual     = "Individual"
	RequestTypeOrganizational = "Organizational"
)

// UrgencyLevel enum constants
const (
	UrgencyLow      = "Low"
	UrgencyNormal   = "Normal"
	UrgencyHigh     = "High"
	UrgencyCritical = "Critical"
)

// Request-level status, always derived from the audit trail fold — never set
// directly by a handler or service.
const (
	RequestStatusSubmitted         = "Submitted"
	RequestStatusForwardedToAdmin  = "ForwardedToAdmin"
	RequestStatusApproved          = "Approved"
	RequestStatusRejected          = "Rejected"
	RequestStatusPartiallyApproved = "PartiallyApproved"
)

// Per-item decision type constants. PENDING is an explicit state, not an
// absent value. The two FORWARD_* decisions are non-terminal: the item
// re-enters PENDING scoped to the target level.
const (
	DecisionPending               = "PENDING"
	DecisionApproveFromStock      = "APPROVE_FROM_STOCK"
	DecisionApproveForProcurement = "APPROVE_FOR_PROCUREMENT"
	DecisionReject                = "REJECT"
	DecisionReturn                = "RETURN"
	DecisionForwardToSupervisor   = "FORWARD_TO_SUPERVISOR"
	DecisionForwardToAdmin        = "FORWARD_TO_ADMIN"
)

// Owning level of a pending item — which role holds the decision right now
const (
	LevelSupervisor = "SUPERVISOR"
	LevelAdmin      = "ADMIN"
)

// TerminalDecision reports whether a decision type can no longer be acted on
func TerminalDecision(decision string) bool {
	switch decision {
	case DecisionApproveFromStock, DecisionApproveForProcurement, DecisionReject, DecisionReturn:
		return true
	}
	return false
}

// IssuanceRequest is the aggregate root of one stock issuance workflow.
// Status, decision types and ownership levels stored here are projections of
// the audit trail, maintained in the same transaction as the audit append.
type IssuanceRequest struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	RequestType        string        `gorm:"type:varchar(20);not null;index" json:"request_type"` // Individual, Organizational
	RequesterID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester          *User         `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	WingID             *uuid.UUID    `gorm:"type:uuid;index" json:"wing_id"` // Originating wing/office scope
	Wing               *Wing         `gorm:"foreignKey:WingID" json:"wing,omitempty"`
	Purpose            string        `gorm:"type:text;not null" json:"purpose"`
	UrgencyLevel       string        `gorm:"type:varchar(20);not null;default:'Normal'" json:"urgency_level"`
	IsReturnable       bool          `gorm:"not null;default:false" json:"is_returnable"`
	ExpectedReturnDate *time.Time    `json:"expected_return_date"`
	OriginalRequestID  *uuid.UUID    `gorm:"type:uuid;index" json:"original_request_id"` // Set on re-submission after a RETURN
	Status             string        `gorm:"type:varchar(30);not null;default:'Submitted';index" json:"status"`
	Items              []RequestItem `gorm:"foreignKey:RequestID" json:"items"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// RequestItem is one line of an IssuanceRequest. A custom item carries only a
// free-text nomenclature and never a stock-backed decision.
type RequestItem struct {
	ID                uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID         uuid.UUID   `gorm:"type:uuid;not null;index" json:"request_id"`
	ItemMasterID      *uuid.UUID  `gorm:"type:uuid;index" json:"item_master_id"`
	ItemMaster        *ItemMaster `gorm:"foreignKey:ItemMasterID" json:"item_master,omitempty"`
	Nomenclature      string      `gorm:"type:varchar(500);not null" json:"nomenclature"`
	IsCustomItem      bool        `gorm:"not null;default:false" json:"is_custom_item"`
	RequestedQuantity int         `gorm:"type:int;not null" json:"requested_quantity"`
	ApprovedQuantity  *int        `gorm:"type:int" json:"approved_quantity"` // Set only on terminal approval
	DecisionType      string      `gorm:"type:varchar(30);not null;default:'PENDING';index" json:"decision_type"`
	CurrentLevel      string      `gorm:"type:varchar(20);not null;default:'SUPERVISOR'" json:"current_level"`
	Version           int         `gorm:"type:int;not null;default:0" json:"version"` // Bumped on every decision write; optimistic concurrency token
	IssuedQuantity    int         `gorm:"type:int;not null;default:0" json:"issued_quantity"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}
