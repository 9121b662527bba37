package services

import (
	"context"
	"time"

	"remitgate/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ============================================================
// Lockout sweeper: clears lockouts whose expiry has passed
// ============================================================

// CronService runs scheduled maintenance jobs
type CronService struct {
	employeeRepo repositories.EmployeeRepository
	scheduler    *cron.Cron
	spec         string
	timeout      time.Duration
	now          Clock
	log          *logrus.Entry
}

// NewCronService creates a scheduler running the lockout sweep on spec
func NewCronService(employeeRepo repositories.EmployeeRepository, spec string, log *logrus.Entry) *CronService {
	if spec == "" {
		spec = "@every 1m"
	}
	return &CronService{
		employeeRepo: employeeRepo,
		scheduler:    cron.New(cron.WithLocation(time.UTC)),
		spec:         spec,
		timeout:      30 * time.Second,
		now:          utcNow,
		log:          log,
	}
}

// Start registers the jobs and launches the scheduler
func (s *CronService) Start() error {
	if _, err := s.scheduler.AddFunc(s.spec, s.sweepExpiredLocks); err != nil {
		return err
	}
	s.scheduler.Start()
	s.log.WithField("spec", s.spec).Info("🚀 CronService started")
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.scheduler.Stop().Done()
	s.log.Info("🛑 CronService stopped")
}

func (s *CronService) sweepExpiredLocks() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	cleared, err := s.employeeRepo.ClearExpiredLocks(ctx, s.now())
	if err != nil {
		s.log.WithError(err).Error("❌ Lockout sweep failed")
		return
	}
	if cleared > 0 {
		s.log.WithField("cleared", cleared).Info("🔓 Cleared expired lockouts")
	}
}
