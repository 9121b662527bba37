package services

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"remitgate/internal/adapters/persistence/models"
	"remitgate/internal/adapters/persistence/repositories"
	"remitgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// AuditSink delivers an event to one destination
type AuditSink interface {
	Name() string
	Write(ctx context.Context, event domain.AuditEvent) error
}

// AuditService fans events out to its sinks from a background worker.
// Record enqueues without blocking; a full buffer drops the event.
type AuditService struct {
	sinks        []AuditSink
	queue        chan domain.AuditEvent
	log          *logrus.Entry
	writeTimeout time.Duration

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
	dropped atomic.Int64
}

// NewAuditService creates an audit dispatcher with a bounded buffer
func NewAuditService(log *logrus.Entry, bufferSize int, sinks ...AuditSink) *AuditService {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &AuditService{
		sinks:        sinks,
		queue:        make(chan domain.AuditEvent, bufferSize),
		log:          log,
		writeTimeout: 5 * time.Second,
		done:         make(chan struct{}),
	}
}

// Start launches the delivery goroutine
func (s *AuditService) Start() {
	go s.run()
	s.log.WithField("sinks", len(s.sinks)).Info("🚀 AuditService started")
}

// Stop stops accepting events and waits for the buffer to drain
func (s *AuditService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	s.log.WithField("dropped", s.dropped.Load()).Info("🛑 AuditService stopped")
}

// Record enqueues an event. It never blocks.
func (s *AuditService) Record(_ context.Context, event domain.AuditEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		s.dropped.Add(1)
		return
	}

	select {
	case s.queue <- event:
	default:
		s.dropped.Add(1)
		s.log.WithField("event_type", event.Type).Warn("audit buffer full, event dropped")
	}
}

// Dropped returns how many events were discarded
func (s *AuditService) Dropped() int64 {
	return s.dropped.Load()
}

func (s *AuditService) run() {
	defer close(s.done)
	for event := range s.queue {
		s.deliver(event)
	}
}

func (s *AuditService) deliver(event domain.AuditEvent) {
	for _, sink := range s.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		if err := sink.Write(ctx, event); err != nil {
			s.log.WithError(err).
				WithField("sink", sink.Name()).
				WithField("event_type", event.Type).
				Error("audit sink write failed")
		}
		cancel()
	}
}

// ============================================================
// Sinks
// ============================================================

// LogAuditSink writes events to the structured log
type LogAuditSink struct {
	log *logrus.Entry
}

// NewLogAuditSink creates a log sink
func NewLogAuditSink(log *logrus.Entry) *LogAuditSink {
	return &LogAuditSink{log: log}
}

func (s *LogAuditSink) Name() string { return "log" }

func (s *LogAuditSink) Write(_ context.Context, event domain.AuditEvent) error {
	fields := logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"outcome":    event.Outcome,
		"actor":      event.ActorRef,
	}
	if event.RemoteAddr != "" {
		fields["remote_addr"] = event.RemoteAddr
	}
	for k, v := range event.Details {
		fields["detail."+k] = v
	}
	s.log.WithFields(fields).Info("audit")
	return nil
}

// DBAuditSink persists events to the audit_events table
type DBAuditSink struct {
	repo repositories.AuditRepository
}

// NewDBAuditSink creates a database sink
func NewDBAuditSink(repo repositories.AuditRepository) *DBAuditSink {
	return &DBAuditSink{repo: repo}
}

func (s *DBAuditSink) Name() string { return "db" }

func (s *DBAuditSink) Write(ctx context.Context, event domain.AuditEvent) error {
	var details datatypes.JSON
	if len(event.Details) > 0 {
		raw, err := json.Marshal(event.Details)
		if err != nil {
			return err
		}
		details = datatypes.JSON(raw)
	}

	return s.repo.Create(ctx, &models.AuditEvent{
		EventID:    event.ID,
		EventType:  string(event.Type),
		ActorID:    event.ActorID,
		ActorRef:   event.ActorRef,
		Outcome:    string(event.Outcome),
		Details:    details,
		RemoteAddr: event.RemoteAddr,
		OccurredAt: event.OccurredAt,
	})
}
