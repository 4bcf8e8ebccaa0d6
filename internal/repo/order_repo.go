// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Order
// model: concrete orders materialized from recurring definitions.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/domain"
)

// CreateOrder inserts a concrete order materialized from the given recurring
// definition, snapshotting its items. The order ID is a randomly generated
// UUID and CreatedAt is set to UTC.
func CreateOrder(ctx context.Context, db *gorm.DB, ro *domain.RecurringOrder) (*domain.Order, error) {
	o := &domain.Order{
		ID:               uuid.NewString(),
		RecurringOrderID: ro.ID,
		UserID:           ro.UserID,
		RestaurantID:     ro.RestaurantID,
		Items:            ro.Items,
		CreatedAt:        time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder fetches a single order by ID, or ErrNotFound if missing.
func GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrdersForRecurring returns all orders produced by one recurring
// definition, most recent first.
func ListOrdersForRecurring(ctx context.Context, db *gorm.DB, recurringOrderID string) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Where("recurring_order_id = ?", recurringOrderID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
