package models

import (
	"time"

	"remitgate/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Credential Store
// ============================================================

// Employee represents employees table
type Employee struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	EmployeeID          string          `gorm:"uniqueIndex;size:10;not null" json:"employee_id"`
	Username            string          `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email               string          `gorm:"uniqueIndex;size:100;not null" json:"email"`
	FullName            string          `gorm:"size:100" json:"full_name"`
	PasswordHash        string          `gorm:"size:255;not null" json:"-"`
	Salt                string          `gorm:"size:64;not null" json:"-"`
	Role                domain.Role     `gorm:"size:20;not null;default:'EMPLOYEE'" json:"role"`
	VerificationLimit   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"verification_limit"`
	FailedLoginAttempts int             `gorm:"not null;default:0" json:"-"`
	LockedUntil         *time.Time      `gorm:"index" json:"-"`
	IsActive            bool            `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt         *time.Time      `json:"last_login_at"`
	PasswordChangedAt   *time.Time      `json:"-"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}

// IsAccountLocked reports whether a lock is present and still in the future
func (e *Employee) IsAccountLocked(now time.Time) bool {
	return e.LockedUntil != nil && e.LockedUntil.After(now)
}

// Context returns the authorization view of the employee
func (e *Employee) Context() domain.EmployeeContext {
	return domain.EmployeeContext{
		ID:                e.ID,
		EmployeeID:        e.EmployeeID,
		Username:          e.Username,
		Role:              e.Role,
		IsActive:          e.IsActive,
		VerificationLimit: e.VerificationLimit,
	}
}

// EmployeeResponse DTO, never carries secrets or lockout state
type EmployeeResponse struct {
	ID                uint            `json:"id"`
	EmployeeID        string          `json:"employee_id"`
	Username          string          `json:"username"`
	Email             string          `json:"email"`
	FullName          string          `json:"full_name,omitempty"`
	Role              domain.Role     `json:"role"`
	VerificationLimit decimal.Decimal `json:"verification_limit"`
	IsActive          bool            `json:"is_active"`
	LastLoginAt       *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (e *Employee) ToResponse() *EmployeeResponse {
	return &EmployeeResponse{
		ID:                e.ID,
		EmployeeID:        e.EmployeeID,
		Username:          e.Username,
		Email:             e.Email,
		FullName:          e.FullName,
		Role:              e.Role,
		VerificationLimit: e.VerificationLimit,
		IsActive:          e.IsActive,
		LastLoginAt:       e.LastLoginAt,
		CreatedAt:         e.CreatedAt,
	}
}

// ============================================================
// Transaction store
// ============================================================

// Transaction represents transactions table
type Transaction struct {
	ID                string                   `gorm:"primaryKey;size:36" json:"id"`
	Reference         string                   `gorm:"size:64;index" json:"reference"`
	Amount            decimal.Decimal          `gorm:"type:decimal(18,2);not null" json:"amount"`
	Currency          string                   `gorm:"size:3;not null" json:"currency"`
	Beneficiary       string                   `gorm:"size:150" json:"beneficiary,omitempty"`
	DestinationBank   string                   `gorm:"size:150" json:"destination_bank,omitempty"`
	Status            domain.TransactionStatus `gorm:"size:20;not null;index;default:'PENDING'" json:"status"`
	VerifiedAt        *time.Time               `json:"verified_at,omitempty"`
	VerifiedBy        *uint                    `gorm:"index" json:"verified_by,omitempty"`
	VerificationNotes string                   `gorm:"size:500" json:"verification_notes,omitempty"`
	RejectionReason   string                   `gorm:"size:500" json:"rejection_reason,omitempty"`
	BatchID           *string                  `gorm:"size:36;index" json:"batch_id,omitempty"`
	SubmittedAt       *time.Time               `json:"submitted_at,omitempty"`
	CreatedAt         time.Time                `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time                `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// ============================================================
// Audit trail
// ============================================================

// AuditEvent represents audit_events table
type AuditEvent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	EventID    string         `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	EventType  string         `gorm:"size:40;index;not null" json:"event_type"`
	ActorID    *uint          `gorm:"index" json:"actor_id,omitempty"`
	ActorRef   string         `gorm:"size:30" json:"actor_ref,omitempty"`
	Outcome    string         `gorm:"size:20;not null" json:"outcome"`
	Details    datatypes.JSON `json:"details,omitempty"`
	RemoteAddr string         `gorm:"size:64" json:"remote_addr,omitempty"`
	OccurredAt time.Time      `gorm:"index;not null" json:"occurred_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

// AutoMigrate runs auto migration for all tables owned by this service
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Employee{},
		&Transaction{},
		&AuditEvent{},
	)
}
