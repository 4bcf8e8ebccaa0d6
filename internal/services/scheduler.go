// Package services – Scheduler
//
// This file drives periodic execution. The scheduler is a two-state machine
// (stopped/running) around a single timer goroutine: Start performs one
// immediate synchronous poll and then arranges further polls at a fixed
// interval; Stop cancels the periodic trigger cooperatively, letting an
// in-flight poll finish.
//
// Polls never overlap. The timer is rearmed only after the previous poll
// returns, so a slow poll delays the next one rather than doubling up; log
// entries across polls therefore keep a total order.
//
// A failure while obtaining the due-orders list is logged and counted as a
// scheduler-level failure for that tick only; it never stops the loop and
// never propagates.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-recurring-backend/internal/domain"
)

// DueOrdersProvider supplies the current set of due recurring orders. It is
// called once per poll and must be side-effect-free; the order of the
// returned slice is the order of execution.
type DueOrdersProvider interface {
	DueOrders(ctx context.Context) ([]domain.RecurringOrder, error)
}

// Scheduler owns the polling loop. A process composes exactly one instance
// and passes it wherever start/stop/query access is needed; there is no
// package-level singleton.
//
// All methods are safe for concurrent use. Note that a manual trigger racing
// an in-flight scheduled poll is accepted: both paths execute sequentially
// within themselves and the log store append is transactional.
type Scheduler struct {
	// Interval is the delay between the end of one poll and the next tick.
	Interval time.Duration
	// Executor performs the per-order execution attempts.
	Executor *RecurringOrderExecutor

	mu           sync.Mutex
	running      bool
	provider     DueOrdersProvider
	materializer OrderMaterializer
	stopCh       chan struct{}
	doneCh       chan struct{}
}

// NewScheduler constructs a stopped Scheduler polling at the given interval.
// A non-positive interval falls back to one minute.
func NewScheduler(exec *RecurringOrderExecutor, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{Interval: interval, Executor: exec}
}

// Start registers the two collaborators and moves the scheduler to running.
// It performs one poll synchronously before returning, so a freshly started
// scheduler does not wait a full interval for its first check, then launches
// the periodic loop. Calling Start while already running is a no-op.
//
// The provided context bounds the whole loop: cancelling it has the same
// effect as Stop.
func (s *Scheduler) Start(ctx context.Context, provider DueOrdersProvider, materializer OrderMaterializer) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.provider = provider
	s.materializer = materializer
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stop, done := s.stopCh, s.doneCh
	s.mu.Unlock()

	log.Info().Dur("interval", s.Interval).Msg("scheduler started")
	s.poll(ctx)

	go s.run(ctx, stop, done)
}

// Stop cancels the periodic trigger. A poll already in flight finishes to
// completion; Stop does not wait for it. Calling Stop while stopped is a
// no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	log.Info().Msg("scheduler stopped")
}

// Running reports whether the periodic trigger is currently armed.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ExecuteAllPending is the manual trigger path: it fetches the current due
// set and, if non-empty, runs the same per-order sequence as a scheduled
// poll. It returns how many orders were executed; zero with a nil error means
// the nothing-pending signal was raised instead.
//
// It works whether or not the periodic loop is running, as long as Start has
// registered the collaborators at least once; before that it returns
// ErrNotConfigured.
func (s *Scheduler) ExecuteAllPending(ctx context.Context) (int, error) {
	s.mu.Lock()
	provider, materializer := s.provider, s.materializer
	s.mu.Unlock()
	if provider == nil || materializer == nil {
		return 0, ErrNotConfigured
	}

	due, err := provider.DueOrders(ctx)
	if err != nil {
		return 0, fmt.Errorf("due orders lookup: %w", err)
	}
	if len(due) == 0 {
		s.Executor.Notifier.NotifyNothingPending()
		return 0, nil
	}
	for _, ro := range due {
		s.Executor.Execute(ctx, materializer, ro)
	}
	return len(due), nil
}

// run is the periodic loop. The timer is rearmed strictly after poll returns,
// never on an independent wall-clock cadence.
func (s *Scheduler) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	t := time.NewTimer(s.Interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			s.poll(ctx)
			t.Reset(s.Interval)
		}
	}
}

// poll asks the provider for the due set and drives the executor over each
// entry sequentially, in provider order. Provider failures abort only this
// tick.
func (s *Scheduler) poll(ctx context.Context) {
	tr := otel.Tracer("services/Scheduler")
	ctx, span := tr.Start(ctx, "poll")
	defer span.End()

	start := time.Now()
	defer func() {
		pollDuration.Observe(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	provider, materializer := s.provider, s.materializer
	s.mu.Unlock()

	due, err := provider.DueOrders(ctx)
	if err != nil {
		pollFailures.Inc()
		span.SetAttributes(attribute.Bool("provider_error", true))
		log.Error().Err(err).Msg("due orders lookup failed")
		return
	}
	span.SetAttributes(attribute.Int("due_orders", len(due)))
	if len(due) == 0 {
		return
	}
	for _, ro := range due {
		s.Executor.Execute(ctx, materializer, ro)
	}
	log.Debug().Int("executed", len(due)).Msg("poll completed")
}
