// Package services – RecurringOrderExecutor
//
// This file implements one execution attempt for one due recurring order:
// validate the payment method, materialize a concrete order through the
// host-supplied boundary, append exactly one execution log entry, and raise
// the matching notification signal.
//
// The central guarantee is that every call to Execute appends exactly one log
// entry, whichever branch is taken, and that no failure inside one order's
// processing escapes the executor: a single order's failure must not abort the
// remaining due orders of the same poll.
//
// Observability: Execute is OpenTelemetry-instrumented and increments the
// execution outcome counters.
package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/domain"
	"github.com/tbourn/go-recurring-backend/internal/repo"
)

// OrderMaterializer is the host's order-creation pathway: given a recurring
// order id it produces a new concrete order and returns its id, or fails.
//
// Implementations may suspend on I/O and must honor the provided context.
type OrderMaterializer interface {
	Materialize(ctx context.Context, recurringOrderID string) (string, error)
}

// RecurringOrderExecutor performs execution attempts. It is safe for
// sequential use by the scheduler and the manual trigger; the execution log
// store provides the only shared mutable state and its append is transactional.
type RecurringOrderExecutor struct {
	// DB is the GORM handle backing the execution log store.
	DB *gorm.DB
	// Validator classifies the payment method at the moment of execution.
	Validator PaymentValidator
	// Notifier receives outcome signals. Never nil in a composed service.
	Notifier Notifier
	// LogCapacity bounds the execution log store (entries beyond it are
	// evicted oldest-first on append). Values <= 0 disable eviction.
	LogCapacity int
}

// Execute performs one execution attempt for ro and returns the log entry it
// appended, or nil when even the log write failed. It never returns an error:
// every failure is converted into a logged outcome.
//
// Branches:
//   - payment invalid: no materialization, entry with status "error" and the
//     validation reason, payment-failure signal raised.
//   - materialization fails: entry with status "error" and the failure detail.
//   - materialization succeeds: entry with status "success" and the new order
//     id, success signal raised.
func (e *RecurringOrderExecutor) Execute(ctx context.Context, materializer OrderMaterializer, ro domain.RecurringOrder) *domain.ExecutionLog {
	tr := otel.Tracer("services/RecurringOrderExecutor")
	ctx, span := tr.Start(ctx, "Execute",
		trace.WithAttributes(
			attribute.String("recurring_order.id", ro.ID),
			attribute.String("payment.type", ro.Payment.Type),
		),
	)
	defer span.End()

	if err := e.Validator.Validate(ro.Payment); err != nil {
		span.SetAttributes(attribute.String("outcome", "payment_invalid"))
		executionsTotal.WithLabelValues(domain.ExecutionStatusError).Inc()
		entry := e.appendLog(ctx, ro.ID, nil, domain.ExecutionStatusError, err.Error())
		e.Notifier.NotifyPaymentFailure(ro, err.Error())
		return entry
	}

	orderID, err := materializer.Materialize(ctx, ro.ID)
	if err != nil {
		span.SetAttributes(attribute.String("outcome", "materialization_failed"))
		executionsTotal.WithLabelValues(domain.ExecutionStatusError).Inc()
		return e.appendLog(ctx, ro.ID, nil, domain.ExecutionStatusError, err.Error())
	}

	span.SetAttributes(attribute.String("outcome", "success"))
	executionsTotal.WithLabelValues(domain.ExecutionStatusSuccess).Inc()
	entry := e.appendLog(ctx, ro.ID, &orderID, domain.ExecutionStatusSuccess, "")
	e.Notifier.NotifySuccess(ro, orderID)
	return entry
}

// appendLog writes the attempt's outcome to the log store. A write failure is
// logged and swallowed: losing a log entry must never block order processing.
func (e *RecurringOrderExecutor) appendLog(ctx context.Context, recurringOrderID string, orderID *string, status, errorMessage string) *domain.ExecutionLog {
	var msg *string
	if errorMessage != "" {
		msg = &errorMessage
	}
	entry, err := repo.AppendExecutionLog(ctx, e.DB, e.LogCapacity, recurringOrderID, orderID, status, msg)
	if err != nil {
		log.Error().
			Err(err).
			Str("recurring_order_id", recurringOrderID).
			Str("status", status).
			Msg("execution log write failed")
		return nil
	}
	return entry
}
