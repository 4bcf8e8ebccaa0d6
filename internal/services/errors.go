// Package services defines the business logic of the recurring-order
// execution core: payment validation, execution attempts, scheduling,
// statistics, and definition lifecycle. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Recurring order definition errors.
var (
	// ErrRecurringOrderNotFound indicates that the requested definition does
	// not exist or is not accessible to the current user.
	ErrRecurringOrderNotFound = errors.New("recurring order not found")

	// ErrEmptyItems is returned when a definition is created without any
	// order items.
	ErrEmptyItems = errors.New("recurring order has no items")

	// ErrInvalidInterval is returned when a definition's execution interval
	// is zero, negative, or below the supported minimum.
	ErrInvalidInterval = errors.New("run interval must be at least one minute")
)

// Payment validation failures. These are normal negative outcomes of an
// execution attempt, not transport faults: they are recorded in the execution
// log with status "error" and never propagate past the executor.
var (
	// ErrNoPaymentMethod is returned when a definition carries no payment
	// method type at all.
	ErrNoPaymentMethod = errors.New("no payment method configured")

	// ErrUnsupportedPaymentMethod is returned when the payment method type is
	// outside the supported set (wallet, card, cash).
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
)

// Scheduler and retention errors.
var (
	// ErrNotConfigured is returned by the manual trigger when no due-orders
	// provider and materializer have been registered yet (Start was never
	// called).
	ErrNotConfigured = errors.New("scheduler collaborators not configured")

	// ErrInvalidRetention is returned when a log retention sweep is requested
	// with fewer than one day to keep.
	ErrInvalidRetention = errors.New("days to keep must be >= 1")
)
