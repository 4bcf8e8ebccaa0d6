// Package services – default collaborator implementations
//
// This file supplies the DB-backed due-orders provider and order materializer
// wired in by the composition root. Both are replaceable at Start time: a
// host with its own order pathway passes its own implementations and the
// execution core never notices the difference.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/domain"
	"github.com/tbourn/go-recurring-backend/internal/repo"
)

// DBDueOrdersProvider reads the due set from the recurring_orders table: not
// paused, next_run_at <= now, longest-overdue first.
type DBDueOrdersProvider struct {
	DB *gorm.DB
}

// DueOrders implements DueOrdersProvider.
func (p *DBDueOrdersProvider) DueOrders(ctx context.Context) ([]domain.RecurringOrder, error) {
	return repo.ListDueRecurringOrders(ctx, p.DB, time.Now().UTC())
}

// DBOrderMaterializer turns a definition into a concrete order row and
// reschedules the definition one interval ahead. Both writes happen in a
// single transaction so a crash cannot leave an order placed but still due.
type DBOrderMaterializer struct {
	DB *gorm.DB
}

// Materialize implements OrderMaterializer. It fails with
// ErrRecurringOrderNotFound when the definition has vanished between the due
// check and now (deleted mid-poll).
func (m *DBOrderMaterializer) Materialize(ctx context.Context, recurringOrderID string) (string, error) {
	var orderID string
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ro, err := repo.GetRecurringOrder(ctx, tx, recurringOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecurringOrderNotFound
			}
			return err
		}
		o, err := repo.CreateOrder(ctx, tx, ro)
		if err != nil {
			return err
		}
		if err := repo.AdvanceNextRun(ctx, tx, ro.ID, time.Now().UTC().Add(ro.RunEvery)); err != nil {
			return err
		}
		orderID = o.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return orderID, nil
}
