package repositories

import (
	"context"
	"errors"
	"time"

	"remitgate/internal/adapters/persistence/models"
	"remitgate/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transactionRepository implements TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create creates a new transaction
func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID gets a transaction by ID
func (r *transactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// FindManyByIDsWithStatus returns the subset of ids currently in status
func (r *transactionRepository) FindManyByIDsWithStatus(ctx context.Context, ids []string, status domain.TransactionStatus) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("status = ?", status).
		Find(&txs).Error
	return txs, err
}

// UpdateStatus moves a transaction from expected to next in a single
// conditional UPDATE. Returns ErrStaleStatus when the row was not in expected.
func (r *transactionRepository) UpdateStatus(ctx context.Context, id string, expected, next domain.TransactionStatus, fields map[string]interface{}) error {
	updates := withStatus(fields, next)

	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrStaleStatus
	}
	return nil
}

// TransitionBatch moves every id from expected to next or none of them.
// Eligibility is checked under row locks inside the same transaction as the
// update. On ErrBatchInvalid the offending ids are returned.
func (r *transactionRepository) TransitionBatch(ctx context.Context, ids []string, expected, next domain.TransactionStatus, fields map[string]interface{}) ([]*models.Transaction, []string, error) {
	var (
		invalid []string
		moved   []*models.Transaction
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []*models.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Order("id").
			Find(&rows).Error; err != nil {
			return err
		}

		byID := make(map[string]*models.Transaction, len(rows))
		for _, row := range rows {
			byID[row.ID] = row
		}
		for _, id := range ids {
			row, ok := byID[id]
			if !ok || row.Status != expected {
				invalid = append(invalid, id)
			}
		}
		if len(invalid) > 0 {
			return ErrBatchInvalid
		}

		res := tx.Model(&models.Transaction{}).
			Where("id IN ? AND status = ?", ids, expected).
			Updates(withStatus(fields, next))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return ErrStaleStatus
		}

		if err := tx.Where("id IN ?", ids).Order("id").Find(&moved).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBatchInvalid) {
			return nil, invalid, err
		}
		return nil, nil, err
	}
	return moved, nil, nil
}

// CountByStatus counts transactions grouped by status
func (r *transactionRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	return counts, err
}

// TotalsSince counts and sums transactions created at or after since
func (r *transactionRepository) TotalsSince(ctx context.Context, since time.Time) (*DailyTotals, error) {
	var totals DailyTotals
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("created_at >= ?", since).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func withStatus(fields map[string]interface{}, status domain.TransactionStatus) map[string]interface{} {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["status"] = status
	return updates
}
