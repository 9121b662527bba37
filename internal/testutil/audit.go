package testutil

import (
	"context"
	"io"
	"sync"

	"remitgate/internal/core/domain"

	"github.com/sirupsen/logrus"
)

// Log returns a logger entry that discards output
func Log() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", "test")
}

// RecordingAuditor keeps every recorded event in memory
type RecordingAuditor struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *RecordingAuditor) Record(_ context.Context, event domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

// Events returns a copy of the recorded events
func (a *RecordingAuditor) Events() []domain.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.AuditEvent(nil), a.events...)
}

// Count returns how many events of typ were recorded
func (a *RecordingAuditor) Count(typ domain.AuditEventType) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, e := range a.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}
