package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"remitgate/internal/adapters/persistence/models"
	"remitgate/internal/adapters/persistence/repositories"
	"remitgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TransactionService is the transaction authorization engine
type TransactionService struct {
	txRepo repositories.TransactionRepository
	audit  Auditor
	now    Clock
	log    *logrus.Entry
}

// NewTransactionService creates a new transaction service
func NewTransactionService(txRepo repositories.TransactionRepository, audit Auditor, log *logrus.Entry) *TransactionService {
	return &TransactionService{
		txRepo: txRepo,
		audit:  audit,
		now:    utcNow,
		log:    log,
	}
}

// VerifyInput represents a verification decision
type VerifyInput struct {
	TransactionID string  `json:"-"`
	Approve       bool    `json:"approve"`
	Notes         *string `json:"notes"`
	IPAddress     string  `json:"-"`
}

// BatchSummary describes a batch handed to settlement
type BatchSummary struct {
	BatchID        string          `json:"batch_id"`
	Count          int             `json:"count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TransactionIDs []string        `json:"transaction_ids"`
	SubmittedAt    time.Time       `json:"submitted_at"`
}

// Get returns a transaction by id
func (s *TransactionService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewFieldError("id", "is required")
	}
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError(s.log, "get transaction", err)
	}
	return tx, nil
}

// Verify approves or rejects a PENDING transaction. Only one call per
// transaction can succeed; every other observes ErrInvalidState.
func (s *TransactionService) Verify(ctx context.Context, actor domain.EmployeeContext, input *VerifyInput) (*models.Transaction, error) {
	notes := ""
	if input.Notes != nil {
		notes = strings.TrimSpace(*input.Notes)
	}
	if utf8.RuneCountInString(notes) > domain.MaxRejectionReasonLength {
		return nil, domain.NewFieldError("notes", "must be at most 500 characters")
	}

	// 1. Load and check state
	tx, err := s.Get(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.StatusPending {
		return nil, domain.ErrInvalidState
	}

	// 2. Limit check on exact decimals
	if input.Approve && !actor.MayApprove(tx.Amount) {
		event := domain.ActorEvent(domain.AuditTxLimitExceeded, actor, domain.OutcomeDenied, map[string]interface{}{
			"transaction_id": tx.ID,
			"amount":         tx.Amount.String(),
			"limit":          actor.VerificationLimit.String(),
		})
		event.RemoteAddr = input.IPAddress
		s.audit.Record(ctx, event)
		return nil, domain.ErrLimitExceeded
	}

	// 3. Compare-and-swap on PENDING
	now := s.now()
	next := domain.StatusVerified
	fields := map[string]interface{}{
		"verified_by": actor.ID,
	}
	if input.Approve {
		fields["verified_at"] = now
		fields["verification_notes"] = notes
	} else {
		next = domain.StatusRejected
		if notes == "" {
			notes = domain.DefaultRejectionReason
		}
		fields["rejection_reason"] = notes
	}

	if err := s.txRepo.UpdateStatus(ctx, tx.ID, domain.StatusPending, next, fields); err != nil {
		if errors.Is(err, repositories.ErrStaleStatus) {
			return nil, domain.ErrInvalidState
		}
		return nil, storeError(s.log, "update transaction status", err)
	}

	actorID := actor.ID
	tx.Status = next
	tx.VerifiedBy = &actorID
	if input.Approve {
		tx.VerifiedAt = &now
		tx.VerificationNotes = notes
	} else {
		tx.RejectionReason = notes
	}

	eventType := domain.AuditTxVerified
	if !input.Approve {
		eventType = domain.AuditTxRejected
	}
	event := domain.ActorEvent(eventType, actor, domain.OutcomeSuccess, map[string]interface{}{
		"transaction_id": tx.ID,
		"amount":         tx.Amount.String(),
		"currency":       tx.Currency,
		"status":         string(next),
	})
	event.RemoteAddr = input.IPAddress
	s.audit.Record(ctx, event)

	s.log.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"employee_id":    actor.EmployeeID,
		"status":         next,
	}).Info("✅ Transaction verified")

	return tx, nil
}

// SubmitBatch moves every transaction from VERIFIED to PROCESSING, or none
func (s *TransactionService) SubmitBatch(ctx context.Context, actor domain.EmployeeContext, ids []string, ip string) (*BatchSummary, error) {
	if err := validateBatch(ids); err != nil {
		return nil, err
	}

	// 1. Cheap pre-check without locks
	eligible, err := s.txRepo.FindManyByIDsWithStatus(ctx, ids, domain.StatusVerified)
	if err != nil {
		return nil, storeError(s.log, "find batch", err)
	}
	if len(eligible) != len(ids) {
		return nil, s.rejectBatch(ctx, actor, ids, missingIDs(ids, eligible), ip)
	}

	// 2. Re-validate and transition atomically
	batchID := uuid.NewString()
	now := s.now()
	moved, invalid, err := s.txRepo.TransitionBatch(ctx, ids, domain.StatusVerified, domain.StatusProcessing, map[string]interface{}{
		"batch_id":     batchID,
		"submitted_at": now,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrBatchInvalid):
			return nil, s.rejectBatch(ctx, actor, ids, invalid, ip)
		case errors.Is(err, repositories.ErrStaleStatus):
			return nil, s.rejectBatch(ctx, actor, ids, ids, ip)
		}
		return nil, storeError(s.log, "transition batch", err)
	}

	summary := &BatchSummary{
		BatchID:        batchID,
		Count:          len(moved),
		TotalAmount:    decimal.Zero,
		TransactionIDs: make([]string, 0, len(moved)),
		SubmittedAt:    now,
	}
	for _, tx := range moved {
		summary.TotalAmount = summary.TotalAmount.Add(tx.Amount)
		summary.TransactionIDs = append(summary.TransactionIDs, tx.ID)

		event := domain.ActorEvent(domain.AuditTxSubmitted, actor, domain.OutcomeSuccess, map[string]interface{}{
			"transaction_id": tx.ID,
			"batch_id":       batchID,
			"amount":         tx.Amount.String(),
		})
		event.RemoteAddr = ip
		s.audit.Record(ctx, event)
	}

	s.log.WithFields(logrus.Fields{
		"batch_id":    batchID,
		"count":       summary.Count,
		"employee_id": actor.EmployeeID,
	}).Info("📦 Batch submitted for settlement")

	return summary, nil
}

func (s *TransactionService) rejectBatch(ctx context.Context, actor domain.EmployeeContext, ids, invalid []string, ip string) error {
	event := domain.ActorEvent(domain.AuditTxBatchRejected, actor, domain.OutcomeFailure, map[string]interface{}{
		"requested":   len(ids),
		"invalid_ids": invalid,
	})
	event.RemoteAddr = ip
	s.audit.Record(ctx, event)
	return &domain.BatchError{InvalidIDs: invalid}
}

func validateBatch(ids []string) error {
	if len(ids) == 0 {
		return domain.NewFieldError("transaction_ids", "at least one id is required")
	}
	if len(ids) > domain.MaxBatchSize {
		return domain.NewFieldError("transaction_ids", "at most 50 ids per batch")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return domain.NewFieldError("transaction_ids", "ids must not be empty")
		}
		if _, dup := seen[id]; dup {
			return domain.NewFieldError("transaction_ids", "duplicate id "+id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// missingIDs returns the requested ids absent from found, in request order
func missingIDs(ids []string, found []*models.Transaction) []string {
	present := make(map[string]struct{}, len(found))
	for _, tx := range found {
		present[tx.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
