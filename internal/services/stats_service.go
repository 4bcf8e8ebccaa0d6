// Package services – StatsService
//
// This file derives aggregate service statistics from the execution log. The
// numbers are recomputed fresh on every call (no caching, no incremental
// maintenance) so they can never drift from the store contents.
package services

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/repo"
)

// ServiceStats is the derived, non-persisted aggregate view of the execution
// core. SuccessRate is a percentage rounded to one decimal place and defined
// as 0 when there are no executions.
type ServiceStats struct {
	TotalExecutions      int64   `json:"total_executions"`
	SuccessfulExecutions int64   `json:"successful_executions"`
	FailedExecutions     int64   `json:"failed_executions"`
	SuccessRate          float64 `json:"success_rate"`
	ExecutionsLast24h    int64   `json:"executions_last_24h"`
	IsRunning            bool    `json:"is_running"`
}

// StatsService computes ServiceStats on demand.
type StatsService struct {
	// DB is the GORM handle backing the execution log store.
	DB *gorm.DB
	// Scheduler supplies the current run state.
	Scheduler *Scheduler
}

// ServiceStats returns the current aggregate counters. The 24-hour window is
// anchored at this call's invocation time.
func (s *StatsService) ServiceStats(ctx context.Context) (ServiceStats, error) {
	now := time.Now().UTC()
	total, success, recent, err := repo.ExecutionStats(ctx, s.DB, now.Add(-24*time.Hour))
	if err != nil {
		return ServiceStats{}, err
	}

	var rate float64
	if total > 0 {
		rate = math.Round(float64(success)/float64(total)*1000) / 10
	}

	return ServiceStats{
		TotalExecutions:      total,
		SuccessfulExecutions: success,
		FailedExecutions:     total - success,
		SuccessRate:          rate,
		ExecutionsLast24h:    recent,
		IsRunning:            s.Scheduler.Running(),
	}, nil
}
