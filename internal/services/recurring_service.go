// Package services – RecurringOrderService
//
// This file implements the definition lifecycle consumed by the CRUD surface:
// create, list, fetch, pause/resume, delete. Definitions are read-only to the
// execution core; this service is where users shape what the core will later
// execute.
//
// Payment method types are deliberately NOT validated here. Validation at the
// moment of execution is the PaymentValidator's single responsibility, and a
// definition created with a malformed method must still execute (and fail,
// and be logged) the same way an aged-out method would.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/domain"
	"github.com/tbourn/go-recurring-backend/internal/repo"
)

// MinRunInterval is the smallest accepted execution interval for a
// definition.
const MinRunInterval = time.Minute

// RecurringOrderService manages recurring order definitions.
type RecurringOrderService struct {
	// DB is the GORM handle used for all definition operations.
	DB *gorm.DB
}

// Create validates and persists a new definition owned by userID.
//
// Validation:
//   - items must be non-empty and every quantity positive (ErrEmptyItems).
//   - runEvery must be at least MinRunInterval (ErrInvalidInterval).
func (s *RecurringOrderService) Create(ctx context.Context, userID, restaurantID string, items []domain.OrderItem, payment domain.PaymentMethod, runEvery time.Duration) (*domain.RecurringOrder, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, ErrEmptyItems
		}
	}
	if runEvery < MinRunInterval {
		return nil, ErrInvalidInterval
	}
	return repo.CreateRecurringOrder(ctx, s.DB, userID, restaurantID, items, payment, runEvery)
}

// List returns all definitions for a user, most recent first.
func (s *RecurringOrderService) List(ctx context.Context, userID string) ([]domain.RecurringOrder, error) {
	return repo.ListRecurringOrders(ctx, s.DB, userID)
}

// Get fetches one definition, enforcing ownership. Returns
// ErrRecurringOrderNotFound when missing or owned by someone else.
func (s *RecurringOrderService) Get(ctx context.Context, userID, id string) (*domain.RecurringOrder, error) {
	ro, err := repo.GetRecurringOrder(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecurringOrderNotFound
		}
		return nil, err
	}
	if ro.UserID != userID {
		return nil, ErrRecurringOrderNotFound
	}
	return ro, nil
}

// SetPaused pauses or resumes a definition. A paused definition is excluded
// from due sets until resumed. Returns ErrRecurringOrderNotFound when the
// definition is missing or not owned by userID.
func (s *RecurringOrderService) SetPaused(ctx context.Context, userID, id string, paused bool) error {
	err := repo.SetRecurringOrderPaused(ctx, s.DB, id, userID, paused)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecurringOrderNotFound
	}
	return err
}

// Delete soft-deletes a definition. Its execution log entries survive.
// Returns ErrRecurringOrderNotFound when missing or not owned by userID.
func (s *RecurringOrderService) Delete(ctx context.Context, userID, id string) error {
	err := repo.DeleteRecurringOrder(ctx, s.DB, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecurringOrderNotFound
	}
	return err
}
