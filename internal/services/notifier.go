// Package services – notification sink
//
// This file defines the host-facing notification boundary. The core only
// emits the signal that a notification should be raised; delivery mechanics
// (push, local, in-app) belong to the host. Signals are fire-and-forget: the
// sink returns nothing, and a misbehaving sink cannot affect execution log
// correctness.
package services

import (
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-recurring-backend/internal/domain"
)

// Notifier receives human-visible signals about execution outcomes.
type Notifier interface {
	// NotifySuccess signals that a recurring order materialized a new order.
	NotifySuccess(ro domain.RecurringOrder, orderID string)
	// NotifyPaymentFailure signals that an execution attempt was rejected at
	// payment validation, with the human-readable reason.
	NotifyPaymentFailure(ro domain.RecurringOrder, reason string)
	// NotifyNothingPending signals that a manual trigger found no due orders,
	// distinguishing "nothing to do" from "did work".
	NotifyNothingPending()
}

// LogNotifier is the default Notifier: it writes a structured log line per
// signal and increments the notification counter. Hosts with a real delivery
// channel replace it at composition time.
type LogNotifier struct{}

// NotifySuccess implements Notifier.
func (LogNotifier) NotifySuccess(ro domain.RecurringOrder, orderID string) {
	notificationsTotal.WithLabelValues("success").Inc()
	log.Info().
		Str("recurring_order_id", ro.ID).
		Str("user_id", ro.UserID).
		Str("order_id", orderID).
		Msg("recurring order executed")
}

// NotifyPaymentFailure implements Notifier.
func (LogNotifier) NotifyPaymentFailure(ro domain.RecurringOrder, reason string) {
	notificationsTotal.WithLabelValues("payment_failure").Inc()
	log.Warn().
		Str("recurring_order_id", ro.ID).
		Str("user_id", ro.UserID).
		Str("reason", reason).
		Msg("recurring order payment failed")
}

// NotifyNothingPending implements Notifier.
func (LogNotifier) NotifyNothingPending() {
	notificationsTotal.WithLabelValues("nothing_pending").Inc()
	log.Info().Msg("no recurring orders pending")
}
