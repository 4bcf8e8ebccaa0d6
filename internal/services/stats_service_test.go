package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/domain"
)

func seedExecutionLog(t *testing.T, db *gorm.DB, status string, at time.Time) {
	t.Helper()
	entry := domain.ExecutionLog{RecurringOrderID: "ro-1", Status: status, CreatedAt: at}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("seed log: %v", err)
	}
}

func newStatsService(t *testing.T) (*StatsService, *gorm.DB, *Scheduler) {
	t.Helper()
	db := newTestDB(t)
	sched := NewScheduler(newTestExecutor(db, &recordingNotifier{}), time.Hour)
	return &StatsService{DB: db, Scheduler: sched}, db, sched
}

func TestServiceStats_EmptyStore_AllZero(t *testing.T) {
	svc, _, _ := newStatsService(t)

	st, err := svc.ServiceStats(context.Background())
	if err != nil {
		t.Fatalf("ServiceStats: %v", err)
	}
	if st.TotalExecutions != 0 || st.SuccessfulExecutions != 0 || st.FailedExecutions != 0 {
		t.Fatalf("expected zero counters, got %+v", st)
	}
	if st.SuccessRate != 0 {
		t.Fatalf("success rate must be 0 for empty store, got %v", st.SuccessRate)
	}
	if st.IsRunning {
		t.Fatalf("expected not running")
	}
}

func TestServiceStats_RateRoundedToOneDecimal(t *testing.T) {
	svc, db, _ := newStatsService(t)
	now := time.Now().UTC()

	// 2 of 3 succeed: 66.666…% rounds to 66.7.
	seedExecutionLog(t, db, domain.ExecutionStatusSuccess, now.Add(-time.Hour))
	seedExecutionLog(t, db, domain.ExecutionStatusSuccess, now.Add(-2*time.Hour))
	seedExecutionLog(t, db, domain.ExecutionStatusError, now.Add(-3*time.Hour))

	st, err := svc.ServiceStats(context.Background())
	if err != nil {
		t.Fatalf("ServiceStats: %v", err)
	}
	if st.TotalExecutions != 3 || st.SuccessfulExecutions != 2 || st.FailedExecutions != 1 {
		t.Fatalf("unexpected counters: %+v", st)
	}
	if st.SuccessRate != 66.7 {
		t.Fatalf("success rate = %v, want 66.7", st.SuccessRate)
	}
}

func TestServiceStats_24hWindow(t *testing.T) {
	svc, db, _ := newStatsService(t)
	now := time.Now().UTC()

	seedExecutionLog(t, db, domain.ExecutionStatusSuccess, now.Add(-time.Hour))     // inside
	seedExecutionLog(t, db, domain.ExecutionStatusError, now.Add(-23*time.Hour))    // inside
	seedExecutionLog(t, db, domain.ExecutionStatusSuccess, now.Add(-25*time.Hour))  // outside
	seedExecutionLog(t, db, domain.ExecutionStatusSuccess, now.Add(-100*time.Hour)) // outside

	st, err := svc.ServiceStats(context.Background())
	if err != nil {
		t.Fatalf("ServiceStats: %v", err)
	}
	if st.TotalExecutions != 4 {
		t.Fatalf("total = %d, want 4", st.TotalExecutions)
	}
	if st.ExecutionsLast24h != 2 {
		t.Fatalf("last24h = %d, want 2", st.ExecutionsLast24h)
	}
}

func TestServiceStats_ReflectsSchedulerState(t *testing.T) {
	svc, _, sched := newStatsService(t)

	sched.Start(context.Background(), &fakeProvider{}, &fakeMaterializer{})
	defer sched.Stop()

	st, err := svc.ServiceStats(context.Background())
	if err != nil {
		t.Fatalf("ServiceStats: %v", err)
	}
	if !st.IsRunning {
		t.Fatalf("expected IsRunning=true while scheduler runs")
	}

	sched.Stop()
	st, _ = svc.ServiceStats(context.Background())
	if st.IsRunning {
		t.Fatalf("expected IsRunning=false after stop")
	}
}
