// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind service
// statistics. Each function is context-aware and recomputes from the live
// table contents; nothing here is cached.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/domain"
)

// ExecutionStats returns aggregate counters over the execution log: the total
// number of retained entries, how many of them succeeded, and how many were
// written strictly after the given instant (the trailing-window count).
//
// Return values:
//   - total:   retained entries
//   - success: entries with status "success"
//   - recent:  entries with created_at > since
//   - err:     database error, if any
func ExecutionStats(ctx context.Context, db *gorm.DB, since time.Time) (total, success, recent int64, err error) {
	if err = db.WithContext(ctx).
		Model(&domain.ExecutionLog{}).
		Count(&total).Error; err != nil {
		return 0, 0, 0, err
	}
	if total == 0 {
		return 0, 0, 0, nil
	}
	if err = db.WithContext(ctx).
		Model(&domain.ExecutionLog{}).
		Where("status = ?", domain.ExecutionStatusSuccess).
		Count(&success).Error; err != nil {
		return 0, 0, 0, err
	}
	if err = db.WithContext(ctx).
		Model(&domain.ExecutionLog{}).
		Where("created_at > ?", since).
		Count(&recent).Error; err != nil {
		return 0, 0, 0, err
	}
	return total, success, recent, nil
}
