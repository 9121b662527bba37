package config

import (
	"context"
	"fmt"
	"time"

	"remitgate/internal/adapters/persistence/models"
	"remitgate/internal/adapters/persistence/repositories"
	"remitgate/internal/core/domain"
	"remitgate/internal/pkg/logs"
	"remitgate/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SeedEmployee describes a demo employee
type SeedEmployee struct {
	EmployeeID        string
	Username          string
	Email             string
	FullName          string
	Password          string
	Role              domain.Role
	VerificationLimit string
}

// DemoEmployees are created by the seed command
var DemoEmployees = []SeedEmployee{
	{"EMP001", "jsmith", "jsmith@remitgate.local", "John Smith", "Demo123!@#", domain.RoleEmployee, "100000"},
	{"ADM001", "admin", "admin@remitgate.local", "System Administrator", "Admin123!@#", domain.RoleAdmin, "0"},
	{"SUP001", "supervisor", "supervisor@remitgate.local", "Shift Supervisor", "Super123!@#", domain.RoleSupervisor, "1000000"},
}

// Seeder handles database seeding
type Seeder struct {
	db           *gorm.DB
	employeeRepo repositories.EmployeeRepository
	txRepo       repositories.TransactionRepository
	hasher       *password.Hasher
	log          *logrus.Entry
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, hasher *password.Hasher) *Seeder {
	return &Seeder{
		db:           db,
		employeeRepo: repositories.NewEmployeeRepository(db),
		txRepo:       repositories.NewTransactionRepository(db),
		hasher:       hasher,
		log:          logs.WithComponent("seeder"),
	}
}

// Run executes all seeders
// This is for development/testing only
func (s *Seeder) Run(ctx context.Context) error {
	s.log.Info("🌱 Running database seeders...")

	for _, e := range DemoEmployees {
		if err := s.SeedEmployee(ctx, e); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.EmployeeID, err)
		}
	}

	if err := s.seedTransactions(ctx); err != nil {
		return fmt.Errorf("seed transactions: %w", err)
	}

	s.log.Info("✅ Database seeding completed")
	return nil
}

// SeedEmployee creates one employee unless the employee id already exists
func (s *Seeder) SeedEmployee(ctx context.Context, e SeedEmployee) error {
	if err := validateSeedEmployee(e); err != nil {
		return err
	}

	exists, err := s.employeeRepo.ExistsByEmployeeID(ctx, e.EmployeeID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	salt, err := password.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(ctx, e.Password, salt)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	employee := &models.Employee{
		EmployeeID:        e.EmployeeID,
		Username:          e.Username,
		Email:             e.Email,
		FullName:          e.FullName,
		PasswordHash:      hash,
		Salt:              salt,
		Role:              e.Role,
		VerificationLimit: decimal.RequireFromString(e.VerificationLimit),
		IsActive:          true,
		PasswordChangedAt: &now,
	}
	if err := s.employeeRepo.Create(ctx, employee); err != nil {
		return err
	}

	s.log.WithField("employee_id", e.EmployeeID).WithField("role", e.Role).Info("✅ Employee created")
	return nil
}

func validateSeedEmployee(e SeedEmployee) error {
	switch {
	case !domain.EmployeeIDPattern.MatchString(e.EmployeeID):
		return domain.NewFieldError("employee_id", "must be 6-10 uppercase letters or digits")
	case !domain.UsernamePattern.MatchString(e.Username):
		return domain.NewFieldError("username", "must be 3-30 characters of letters, digits, '_' or '-'")
	case !domain.EmailPattern.MatchString(e.Email):
		return domain.NewFieldError("email", "is not a valid address")
	case !password.ValidatePassword(e.Password):
		return domain.NewFieldError("password", "needs 8+ characters with upper, lower, digit and symbol")
	}
	if _, ok := domain.ParseRole(string(e.Role)); !ok {
		return domain.NewFieldError("role", "unknown role")
	}
	limit, err := decimal.NewFromString(e.VerificationLimit)
	if err != nil || limit.IsNegative() {
		return domain.NewFieldError("verification_limit", "must be a non-negative amount")
	}
	return nil
}

// seedTransactions creates demo PENDING transactions on an empty table
func (s *Seeder) seedTransactions(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demo := []struct {
		amount, currency, beneficiary, bank string
	}{
		{"500.00", "USD", "Maria Santos", "BDO Unibank"},
		{"2750.40", "EUR", "Jan Kowalski", "PKO Bank Polski"},
		{"99999.99", "USD", "Acme Imports Ltd", "HSBC Hong Kong"},
		{"150000.00", "USD", "Global Freight LLC", "Citibank NA"},
	}
	for i, d := range demo {
		tx := &models.Transaction{
			ID:              uuid.NewString(),
			Reference:       fmt.Sprintf("RG-DEMO-%04d", i+1),
			Amount:          decimal.RequireFromString(d.amount),
			Currency:        d.currency,
			Beneficiary:     d.beneficiary,
			DestinationBank: d.bank,
			Status:          domain.StatusPending,
		}
		if err := s.txRepo.Create(ctx, tx); err != nil {
			return err
		}
	}

	s.log.WithField("count", len(demo)).Info("✅ Demo transactions created")
	return nil
}
