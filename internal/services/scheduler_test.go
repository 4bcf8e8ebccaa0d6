package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-recurring-backend/internal/domain"
	"github.com/tbourn/go-recurring-backend/internal/repo"
)

// fakeProvider returns a canned due set (or error) and counts polls.
type fakeProvider struct {
	mu    sync.Mutex
	due   []domain.RecurringOrder
	err   error
	calls int
}

func (p *fakeProvider) DueOrders(context.Context) ([]domain.RecurringOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return append([]domain.RecurringOrder(nil), p.due...), nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakeProvider) set(due []domain.RecurringOrder, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.due, p.err = due, err
}

func TestNewScheduler_DefaultsInterval(t *testing.T) {
	s := NewScheduler(nil, 0)
	if s.Interval != time.Minute {
		t.Fatalf("expected 1m default, got %v", s.Interval)
	}
	s = NewScheduler(nil, -5*time.Second)
	if s.Interval != time.Minute {
		t.Fatalf("expected 1m default for negative interval, got %v", s.Interval)
	}
	s = NewScheduler(nil, 10*time.Second)
	if s.Interval != 10*time.Second {
		t.Fatalf("expected configured interval, got %v", s.Interval)
	}
}

func TestScheduler_Start_PollsImmediately(t *testing.T) {
	db := newTestDB(t)
	notif := &recordingNotifier{}
	exec := newTestExecutor(db, notif)
	s := NewScheduler(exec, time.Hour) // long interval: only the immediate poll can fire

	prov := &fakeProvider{due: []domain.RecurringOrder{walletOrder("ro-1")}}
	mat := &fakeMaterializer{orderID: "ord-1"}

	s.Start(context.Background(), prov, mat)
	defer s.Stop()

	// Start returns after the synchronous first poll.
	if prov.callCount() != 1 {
		t.Fatalf("expected exactly one poll on start, got %d", prov.callCount())
	}
	if mat.callCount() != 1 {
		t.Fatalf("expected the due order executed, got %d calls", mat.callCount())
	}
	if !s.Running() {
		t.Fatalf("expected running state after start")
	}
}

func TestScheduler_Start_WhileRunning_IsNoOp(t *testing.T) {
	db := newTestDB(t)
	exec := newTestExecutor(db, &recordingNotifier{})
	s := NewScheduler(exec, time.Hour)

	prov := &fakeProvider{}
	s.Start(context.Background(), prov, &fakeMaterializer{})
	defer s.Stop()

	polls := prov.callCount()
	s.Start(context.Background(), prov, &fakeMaterializer{})
	if prov.callCount() != polls {
		t.Fatalf("second start must not poll again: %d -> %d", polls, prov.callCount())
	}
}

func TestScheduler_StopAndRestart(t *testing.T) {
	db := newTestDB(t)
	exec := newTestExecutor(db, &recordingNotifier{})
	s := NewScheduler(exec, time.Hour)

	prov := &fakeProvider{}
	s.Start(context.Background(), prov, &fakeMaterializer{})
	if !s.Running() {
		t.Fatalf("expected running")
	}
	s.Stop()
	if s.Running() {
		t.Fatalf("expected stopped")
	}
	s.Stop() // double stop is a no-op

	s.Start(context.Background(), prov, &fakeMaterializer{})
	defer s.Stop()
	if !s.Running() {
		t.Fatalf("expected running after restart")
	}
	if prov.callCount() != 2 {
		t.Fatalf("expected one poll per start, got %d", prov.callCount())
	}
}

func TestScheduler_PeriodicPolling(t *testing.T) {
	db := newTestDB(t)
	exec := newTestExecutor(db, &recordingNotifier{})
	s := NewScheduler(exec, 20*time.Millisecond)

	prov := &fakeProvider{}
	s.Start(context.Background(), prov, &fakeMaterializer{})
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for prov.callCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if prov.callCount() < 3 {
		t.Fatalf("expected at least 3 polls, got %d", prov.callCount())
	}
}

func TestScheduler_ProviderError_DoesNotStopLoop(t *testing.T) {
	db := newTestDB(t)
	exec := newTestExecutor(db, &recordingNotifier{})
	s := NewScheduler(exec, 20*time.Millisecond)

	prov := &fakeProvider{err: errors.New("db gone")}
	s.Start(context.Background(), prov, &fakeMaterializer{})
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for prov.callCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if prov.callCount() < 3 {
		t.Fatalf("loop must survive provider errors, got %d polls", prov.callCount())
	}
	if !s.Running() {
		t.Fatalf("expected still running after provider errors")
	}

	// Recovery: once the provider heals, orders execute again.
	prov.set([]domain.RecurringOrder{walletOrder("ro-heal")}, nil)
	deadline = time.Now().Add(2 * time.Second)
	for countLogs(t, db) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if countLogs(t, db) == 0 {
		t.Fatalf("expected executions after provider recovery")
	}
}

func TestScheduler_ContextCancel_StopsLoop(t *testing.T) {
	db := newTestDB(t)
	exec := newTestExecutor(db, &recordingNotifier{})
	s := NewScheduler(exec, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	prov := &fakeProvider{}
	s.Start(ctx, prov, &fakeMaterializer{})
	cancel()

	settled := prov.callCount()
	time.Sleep(100 * time.Millisecond)
	// At most one tick may have been in flight when the context died.
	if prov.callCount() > settled+1 {
		t.Fatalf("loop kept polling after cancel: %d -> %d", settled, prov.callCount())
	}
	s.Stop()
}

func TestExecuteAllPending_NotConfigured(t *testing.T) {
	db := newTestDB(t)
	exec := newTestExecutor(db, &recordingNotifier{})
	s := NewScheduler(exec, time.Hour)

	if _, err := s.ExecuteAllPending(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured before first start, got %v", err)
	}
}

func TestExecuteAllPending_NothingPending_RaisesSignal(t *testing.T) {
	db := newTestDB(t)
	notif := &recordingNotifier{}
	exec := newTestExecutor(db, notif)
	s := NewScheduler(exec, time.Hour)

	prov := &fakeProvider{}
	s.Start(context.Background(), prov, &fakeMaterializer{})
	s.Stop() // collaborators stay registered after stop

	n, err := s.ExecuteAllPending(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected (0, nil), got (%d, %v)", n, err)
	}
	_, _, nothing := notif.snapshot()
	if nothing != 1 {
		t.Fatalf("expected one nothing-pending signal, got %d", nothing)
	}
	if got := countLogs(t, db); got != 0 {
		t.Fatalf("nothing-pending must not write log entries, got %d", got)
	}
}

func TestExecuteAllPending_ExecutesEveryDueOrder(t *testing.T) {
	db := newTestDB(t)
	notif := &recordingNotifier{}
	exec := newTestExecutor(db, notif)
	s := NewScheduler(exec, time.Hour)

	prov := &fakeProvider{}
	mat := &fakeMaterializer{orderID: "ord-m"}
	s.Start(context.Background(), prov, mat)
	defer s.Stop()

	var due []domain.RecurringOrder
	for i := 0; i < 3; i++ {
		due = append(due, walletOrder(fmt.Sprintf("ro-%d", i)))
	}
	prov.set(due, nil)

	n, err := s.ExecuteAllPending(context.Background())
	if err != nil {
		t.Fatalf("ExecuteAllPending: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 executed, got %d", n)
	}
	if got := countLogs(t, db); got != 3 {
		t.Fatalf("expected 3 log entries, got %d", got)
	}
}

func TestExecuteAllPending_ProviderError_Wrapped(t *testing.T) {
	db := newTestDB(t)
	exec := newTestExecutor(db, &recordingNotifier{})
	s := NewScheduler(exec, time.Hour)

	prov := &fakeProvider{}
	s.Start(context.Background(), prov, &fakeMaterializer{})
	defer s.Stop()

	sentinel := errors.New("lookup broke")
	prov.set(nil, sentinel)

	_, err := s.ExecuteAllPending(context.Background())
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestExecuteAllPending_OneBadOrder_DoesNotAbortRest(t *testing.T) {
	db := newTestDB(t)
	notif := &recordingNotifier{}
	exec := newTestExecutor(db, notif)
	s := NewScheduler(exec, time.Hour)

	bad := walletOrder("ro-bad")
	bad.Payment = domain.PaymentMethod{Type: "iou"}
	due := []domain.RecurringOrder{walletOrder("ro-a"), bad, walletOrder("ro-b")}

	prov := &fakeProvider{due: due}
	mat := &fakeMaterializer{orderID: "ord-ok"}
	s.Start(context.Background(), prov, mat)
	s.Stop()

	// The synchronous first poll already handled everything; every order got
	// exactly one log entry, success or not.
	logs, err := repo.ListExecutionLogs(context.Background(), db)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(logs))
	}
	var failures int
	for _, l := range logs {
		if l.Status == domain.ExecutionStatusError {
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly 1 failed entry, got %d", failures)
	}
}
