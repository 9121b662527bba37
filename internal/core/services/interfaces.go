package services

import (
	"context"
	"errors"
	"time"

	"remitgate/internal/core/domain"

	"github.com/sirupsen/logrus"
)

// Note: AuthService implementation is in auth_service.go
// Note: TransactionService implementation is in transaction_service.go

// Auditor receives audit events. Record must never block or fail the caller.
type Auditor interface {
	Record(ctx context.Context, event domain.AuditEvent)
}

// Clock returns the current time; services use UTC throughout
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// storeError maps a storage failure to the public taxonomy.
// Context expiry becomes ErrTimeout, everything else is logged and hidden.
func storeError(log *logrus.Entry, op string, err error) error {
	if timeout := domain.FromContext(err); timeout != nil {
		return timeout
	}
	if errors.Is(err, domain.ErrTimeout) {
		return domain.ErrTimeout
	}
	log.WithError(err).WithField("op", op).Error("storage failure")
	return domain.ErrInternalFailure
}
