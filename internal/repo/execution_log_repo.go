// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ExecutionLog model: the bounded, append-only record of execution attempts.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Semantics:
//
//   - AppendExecutionLog(ctx, db, capacity, ...) -> *domain.ExecutionLog, error
//     Inserts a new entry with a write-time UTC timestamp and, in the same
//     transaction, evicts the oldest entries beyond capacity (FIFO).
//
//   - ListExecutionLogs(ctx, db) -> []domain.ExecutionLog, error
//     Returns every retained entry, most recent first.
//
//   - CountExecutionLogs / ListExecutionLogsPage
//     Pagination support for the HTTP surface.
//
//   - DeleteExecutionLogsBefore(ctx, db, cutoff) -> retained, error
//     Retention sweep: removes entries strictly older than cutoff and
//     reports how many remain. An entry exactly at the cutoff is retained.
//
// Entries are immutable: there is no update function on purpose.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for convenience and consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// AppendExecutionLog inserts one execution log entry and enforces the store's
// capacity in the same transaction: after the insert, only the newest
// `capacity` entries survive (insertion-order eviction). A capacity <= 0
// disables eviction.
//
// The entry's CreatedAt is assigned here, at write time, in UTC. Callers never
// supply timestamps, which keeps them non-decreasing within a process.
func AppendExecutionLog(ctx context.Context, db *gorm.DB, capacity int, recurringOrderID string, orderID *string, status string, errorMessage *string) (*domain.ExecutionLog, error) {
	entry := &domain.ExecutionLog{
		RecurringOrderID: recurringOrderID,
		OrderID:          orderID,
		Status:           status,
		ErrorMessage:     errorMessage,
		CreatedAt:        time.Now().UTC(),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		if capacity > 0 {
			// Keep the newest `capacity` ids; ids are monotonically assigned,
			// so this is exactly FIFO eviction.
			return tx.Exec(
				"DELETE FROM execution_logs WHERE id NOT IN (SELECT id FROM execution_logs ORDER BY id DESC LIMIT ?)",
				capacity,
			).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListExecutionLogs returns all retained execution log entries, most recent
// first. It returns an empty slice when the store is empty.
func ListExecutionLogs(ctx context.Context, db *gorm.DB) ([]domain.ExecutionLog, error) {
	var out []domain.ExecutionLog
	err := db.WithContext(ctx).
		Order("id desc").
		Find(&out).Error
	return out, err
}

// CountExecutionLogs returns the total number of retained entries.
func CountExecutionLogs(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ExecutionLog{}).
		Count(&total).Error
	return total, err
}

// ListExecutionLogsPage returns a paginated slice of entries, most recent
// first. Use CountExecutionLogs to obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListExecutionLogsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.ExecutionLog, error) {
	var out []domain.ExecutionLog
	err := db.WithContext(ctx).
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteExecutionLogsBefore removes entries whose timestamp is strictly older
// than cutoff and returns the number of entries retained. An entry whose
// CreatedAt equals the cutoff survives the sweep.
func DeleteExecutionLogsBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	if err := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.ExecutionLog{}).Error; err != nil {
		return 0, err
	}
	return CountExecutionLogs(ctx, db)
}
