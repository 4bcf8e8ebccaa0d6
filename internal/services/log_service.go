// Package services – ExecutionLogService
//
// This file exposes read and retention operations over the execution log
// store to the host surface. Appending is the executor's job; this service
// only lists and sweeps.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/domain"
	"github.com/tbourn/go-recurring-backend/internal/repo"
)

// ExecutionLogService provides host-facing access to the execution log.
type ExecutionLogService struct {
	// DB is the GORM handle backing the execution log store.
	DB *gorm.DB
}

// Logs returns every retained execution log entry, most recent first.
func (s *ExecutionLogService) Logs(ctx context.Context) ([]domain.ExecutionLog, error) {
	return repo.ListExecutionLogs(ctx, s.DB)
}

// LogsPage returns a page of entries (most recent first) and the total count.
// It applies defaults for invalid page/pageSize.
func (s *ExecutionLogService) LogsPage(ctx context.Context, page, pageSize int) ([]domain.ExecutionLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountExecutionLogs(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ExecutionLog{}, 0, nil
	}

	items, err := repo.ListExecutionLogsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// ClearOld removes entries older than daysToKeep days and returns how many
// entries remain. An entry exactly at the cutoff instant is retained. Values
// below one day are rejected with ErrInvalidRetention.
func (s *ExecutionLogService) ClearOld(ctx context.Context, daysToKeep int) (int64, error) {
	if daysToKeep < 1 {
		return 0, ErrInvalidRetention
	}
	cutoff := time.Now().UTC().Add(-time.Duration(daysToKeep) * 24 * time.Hour)
	return repo.DeleteExecutionLogsBefore(ctx, s.DB, cutoff)
}
