package repositories

import (
	"context"
	"errors"
	"time"

	"remitgate/internal/adapters/persistence/models"
	"remitgate/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Repository errors returned by conditional writes
var (
	ErrLocked       = errors.New("employee is locked")
	ErrStaleStatus  = errors.New("status changed concurrently")
	ErrBatchInvalid = errors.New("batch contains ineligible transactions")
)

// LoginFailure is the lockout state after a failed attempt was counted
type LoginFailure struct {
	Attempts    int
	LockedUntil *time.Time
}

// EmployeeRepository defines the credential store
type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	GetByID(ctx context.Context, id uint) (*models.Employee, error)
	FindActiveByUsernameAndEmployeeID(ctx context.Context, username, employeeID string) (*models.Employee, error)
	RegisterFailedLogin(ctx context.Context, id uint, now time.Time, threshold int, lockFor time.Duration) (*LoginFailure, error)
	RegisterSuccessfulLogin(ctx context.Context, id uint, now time.Time) error
	Unlock(ctx context.Context, id uint) error
	ClearExpiredLocks(ctx context.Context, now time.Time) (int64, error)
	ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error)
}

// StatusCount is one row of the per-status aggregate
type StatusCount struct {
	Status domain.TransactionStatus
	Count  int64
}

// DailyTotals aggregates transactions created since a point in time
type DailyTotals struct {
	Count int64
	Total decimal.Decimal
}

// TransactionRepository defines the transaction store
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	FindManyByIDsWithStatus(ctx context.Context, ids []string, status domain.TransactionStatus) ([]*models.Transaction, error)
	UpdateStatus(ctx context.Context, id string, expected, next domain.TransactionStatus, fields map[string]interface{}) error
	TransitionBatch(ctx context.Context, ids []string, expected, next domain.TransactionStatus, fields map[string]interface{}) ([]*models.Transaction, []string, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	TotalsSince(ctx context.Context, since time.Time) (*DailyTotals, error)
}

// AuditRepository persists audit events
type AuditRepository interface {
	Create(ctx context.Context, event *models.AuditEvent) error
}
