package repositories

import (
	"context"
	"time"

	"remitgate/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// employeeRepository implements EmployeeRepository interface
type employeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

// Create creates a new employee
func (r *employeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

// GetByID gets an employee by primary key
func (r *employeeRepository) GetByID(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindActiveByUsernameAndEmployeeID gets an active employee by its login pair
func (r *employeeRepository) FindActiveByUsernameAndEmployeeID(ctx context.Context, username, employeeID string) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Where("employee_id = ?", employeeID).
		Where("is_active = ?", true).
		First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// RegisterFailedLogin counts one failed attempt and locks the employee once
// the count reaches threshold. The read-modify-write runs in one transaction
// behind the row lock taken by the increment, so concurrent failures for the
// same employee never under-count. Returns ErrLocked when a lock is active.
func (r *employeeRepository) RegisterFailedLogin(ctx context.Context, id uint, now time.Time, threshold int, lockFor time.Duration) (*LoginFailure, error) {
	var failure LoginFailure

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// an expired lock restarts the attempt count
		if err := tx.Model(&models.Employee{}).
			Where("id = ? AND locked_until IS NOT NULL AND locked_until <= ?", id, now).
			Updates(map[string]interface{}{
				"failed_login_attempts": 0,
				"locked_until":          nil,
			}).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Employee{}).
			Where("id = ? AND locked_until IS NULL", id).
			Update("failed_login_attempts", gorm.Expr("failed_login_attempts + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLocked
		}

		var current models.Employee
		if err := tx.Select("id", "failed_login_attempts").Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}
		failure.Attempts = current.FailedLoginAttempts

		if failure.Attempts >= threshold {
			until := now.Add(lockFor)
			if err := tx.Model(&models.Employee{}).
				Where("id = ?", id).
				Update("locked_until", until).Error; err != nil {
				return err
			}
			failure.LockedUntil = &until
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &failure, nil
}

// RegisterSuccessfulLogin resets lockout state and stamps last_login_at.
// Returns ErrLocked if a concurrent failure locked the employee first.
func (r *employeeRepository) RegisterSuccessfulLogin(ctx context.Context, id uint, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ? AND (locked_until IS NULL OR locked_until <= ?)", id, now).
		Updates(map[string]interface{}{
			"failed_login_attempts": 0,
			"locked_until":          nil,
			"last_login_at":         now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLocked
	}
	return nil
}

// Unlock clears the failure counter and lock of an employee
func (r *employeeRepository) Unlock(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"failed_login_attempts": 0,
			"locked_until":          nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearExpiredLocks resets every employee whose lock has lapsed (cleanup job)
func (r *employeeRepository) ClearExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("locked_until IS NOT NULL AND locked_until <= ?", now).
		Updates(map[string]interface{}{
			"failed_login_attempts": 0,
			"locked_until":          nil,
		})
	return res.RowsAffected, res.Error
}

// ExistsByEmployeeID checks if an employee id is taken
func (r *employeeRepository) ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Employee{}).Where("employee_id = ?", employeeID).Count(&count).Error
	return count > 0, err
}
