package services

import (
	"context"
	"time"

	"remitgate/internal/adapters/persistence/repositories"
	"remitgate/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// StatisticsService computes read-only transaction aggregates
type StatisticsService struct {
	txRepo repositories.TransactionRepository
	now    Clock
	log    *logrus.Entry
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(txRepo repositories.TransactionRepository, log *logrus.Entry) *StatisticsService {
	return &StatisticsService{txRepo: txRepo, now: utcNow, log: log}
}

// TransactionStatistics represents the dashboard aggregate
type TransactionStatistics struct {
	ByStatus    map[domain.TransactionStatus]int64 `json:"by_status"`
	Total       int64                              `json:"total"`
	TodayCount  int64                              `json:"today_count"`
	TodayAmount decimal.Decimal                    `json:"today_amount"`
	DayStart    time.Time                          `json:"day_start"`
	GeneratedAt time.Time                          `json:"generated_at"`
}

// Statistics returns per-status counts plus today's (UTC) count and amount
func (s *StatisticsService) Statistics(ctx context.Context) (*TransactionStatistics, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var (
		counts []repositories.StatusCount
		totals *repositories.DailyTotals
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.txRepo.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = s.txRepo.TotalsSince(gctx, dayStart)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(s.log, "statistics", err)
	}

	stats := &TransactionStatistics{
		ByStatus:    make(map[domain.TransactionStatus]int64, len(domain.AllStatuses)),
		TodayCount:  totals.Count,
		TodayAmount: totals.Total,
		DayStart:    dayStart,
		GeneratedAt: now,
	}
	for _, status := range domain.AllStatuses {
		stats.ByStatus[status] = 0
	}
	for _, c := range counts {
		stats.ByStatus[c.Status] = c.Count
		stats.Total += c.Count
	}
	return stats, nil
}
