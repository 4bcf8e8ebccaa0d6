// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// RecurringOrder model.
//
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Due-ness is a pure query predicate here
// (not paused, next_run_at <= now); the scheduling policy lives in the
// service layer.
//
// Error semantics:
//   - When a definition is not found, functions return gorm.ErrRecordNotFound
//     (also exported in this package as ErrNotFound).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/domain"
)

// CreateRecurringOrder inserts a new recurring order definition owned by
// userID. The ID is a randomly generated UUID, CreatedAt is set by GORM, and
// the first run is scheduled one full interval from now.
func CreateRecurringOrder(ctx context.Context, db *gorm.DB, userID, restaurantID string, items []domain.OrderItem, payment domain.PaymentMethod, runEvery time.Duration) (*domain.RecurringOrder, error) {
	ro := &domain.RecurringOrder{
		ID:           uuid.NewString(),
		UserID:       userID,
		RestaurantID: restaurantID,
		Items:        items,
		Payment:      payment,
		RunEvery:     runEvery,
		NextRunAt:    time.Now().UTC().Add(runEvery),
	}
	if err := db.WithContext(ctx).Create(ro).Error; err != nil {
		return nil, err
	}
	return ro, nil
}

// ListRecurringOrders returns all definitions belonging to userID, ordered by
// creation time descending. It returns an empty slice if the user has none.
func ListRecurringOrders(ctx context.Context, db *gorm.DB, userID string) ([]domain.RecurringOrder, error) {
	var out []domain.RecurringOrder
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetRecurringOrder fetches a single definition by its ID. If the record does
// not exist (or was soft-deleted), it returns ErrNotFound.
func GetRecurringOrder(ctx context.Context, db *gorm.DB, id string) (*domain.RecurringOrder, error) {
	var ro domain.RecurringOrder
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&ro).Error
	if err != nil {
		return nil, err
	}
	return &ro, nil
}

// SetRecurringOrderPaused flips the paused flag of a definition owned by
// userID. If no rows are affected (missing or not owned), it returns
// ErrNotFound.
func SetRecurringOrderPaused(ctx context.Context, db *gorm.DB, id, userID string, paused bool) error {
	res := db.WithContext(ctx).
		Model(&domain.RecurringOrder{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("paused", paused)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteRecurringOrder soft-deletes a definition owned by userID. Execution
// logs referencing it are intentionally left in place. Returns ErrNotFound
// when nothing was deleted.
func DeleteRecurringOrder(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.RecurringOrder{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListDueRecurringOrders returns every definition that is due at the given
// instant: not paused and next_run_at <= now. Results are ordered by
// next_run_at ascending so the longest-overdue definition executes first.
func ListDueRecurringOrders(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.RecurringOrder, error) {
	var out []domain.RecurringOrder
	err := db.WithContext(ctx).
		Where("paused = ? AND next_run_at <= ?", false, now).
		Order("next_run_at asc").
		Find(&out).Error
	return out, err
}

// AdvanceNextRun reschedules a definition to run next at the given instant.
// Called by the materializer after a successful execution; a definition that
// keeps failing stays due and is retried on the next poll. Returns
// ErrNotFound when the definition no longer exists.
func AdvanceNextRun(ctx context.Context, db *gorm.DB, id string, next time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.RecurringOrder{}).
		Where("id = ?", id).
		Update("next_run_at", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
