package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workflow role constants
const (
	RoleRequester   = "requester"
	RoleSupervisor  = "supervisor"
	RoleAdmin       = "admin"
	RoleStoreKeeper = "storekeeper"
)

// User represents an actor in the issuance workflow
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Role      string         `gorm:"type:varchar(50);not null" json:"role"`
	WingID    *uuid.UUID     `gorm:"type:uuid;index" json:"wing_id"` // Home wing for requesters and supervisors
	Wing      *Wing          `gorm:"foreignKey:WingID" json:"wing,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// Wing is an organizational sub-unit holding its own local stock pool.
// The admin (central) pool is modeled as stock rows with a NULL wing id.
type Wing struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	OfficeName   string     `gorm:"type:varchar(255)" json:"office_name"`
	SupervisorID *uuid.UUID `gorm:"type:uuid;index" json:"supervisor_id"`
	Supervisor   *User      `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
