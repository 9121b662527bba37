package testutil

import (
	"context"
	"testing"
	"time"

	"remitgate/internal/adapters/persistence/models"
	"remitgate/internal/core/domain"
	"remitgate/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FastHashParams keep argon2 cheap in tests
var FastHashParams = password.Params{MemoryKB: 1024, Iterations: 1, Parallelism: 1}

// DemoPassword is the password given to every seeded test employee
const DemoPassword = "Demo123!@#"

// EmployeeOption adjusts a fixture employee before insert
type EmployeeOption func(*models.Employee)

// WithRole sets the fixture role
func WithRole(role domain.Role) EmployeeOption {
	return func(e *models.Employee) { e.Role = role }
}

// WithLimit sets the fixture verification limit
func WithLimit(limit string) EmployeeOption {
	return func(e *models.Employee) { e.VerificationLimit = decimal.RequireFromString(limit) }
}

// Inactive marks the fixture as disabled
func Inactive() EmployeeOption {
	return func(e *models.Employee) { e.IsActive = false }
}

// CreateEmployee inserts an employee whose password is DemoPassword
func CreateEmployee(t *testing.T, db *gorm.DB, employeeID, username string, opts ...EmployeeOption) *models.Employee {
	t.Helper()

	salt, err := password.GenerateSalt()
	if err != nil {
		t.Fatalf("salt: %v", err)
	}
	hash, err := password.NewHasher(FastHashParams, 1).Hash(context.Background(), DemoPassword, salt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	now := time.Now().UTC()
	e := &models.Employee{
		EmployeeID:        employeeID,
		Username:          username,
		Email:             username + "@bank.test",
		PasswordHash:      hash,
		Salt:              salt,
		Role:              domain.RoleEmployee,
		VerificationLimit: decimal.RequireFromString("100000"),
		IsActive:          true,
		PasswordChangedAt: &now,
	}
	for _, opt := range opts {
		opt(e)
	}

	// gorm skips zero-value bools on create when a default exists
	active := e.IsActive
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("create employee: %v", err)
	}
	if !active {
		if err := db.Model(e).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate employee: %v", err)
		}
		e.IsActive = false
	}
	return e
}

// CreateTransaction inserts a transaction with the given amount and status
func CreateTransaction(t *testing.T, db *gorm.DB, amount string, status domain.TransactionStatus) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		ID:          uuid.NewString(),
		Reference:   "REF-" + uuid.NewString()[:8],
		Amount:      decimal.RequireFromString(amount),
		Currency:    "USD",
		Beneficiary: "Test Beneficiary",
		Status:      status,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

// Reload fetches the current row for a transaction
func Reload(t *testing.T, db *gorm.DB, id string) *models.Transaction {
	t.Helper()

	var tx models.Transaction
	if err := db.Where("id = ?", id).First(&tx).Error; err != nil {
		t.Fatalf("reload transaction: %v", err)
	}
	return &tx
}

// ReloadEmployee fetches the current row for an employee
func ReloadEmployee(t *testing.T, db *gorm.DB, id uint) *models.Employee {
	t.Helper()

	var e models.Employee
	if err := db.Where("id = ?", id).First(&e).Error; err != nil {
		t.Fatalf("reload employee: %v", err)
	}
	return &e
}
