package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tbourn/go-recurring-backend/internal/domain"
)

func TestLogs_EmptyStore(t *testing.T) {
	db := newTestDB(t)
	svc := &ExecutionLogService{DB: db}

	logs, err := svc.Logs(context.Background())
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected empty slice, got %d entries", len(logs))
	}
}

func TestLogsPage_DefaultsAndPaging(t *testing.T) {
	db := newTestDB(t)
	svc := &ExecutionLogService{DB: db}
	now := time.Now().UTC()

	for i := 0; i < 25; i++ {
		entry := domain.ExecutionLog{
			RecurringOrderID: fmt.Sprintf("ro-%d", i),
			Status:           domain.ExecutionStatusSuccess,
			CreatedAt:        now.Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(&entry).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	// Invalid page/pageSize fall back to 1/20.
	items, total, err := svc.LogsPage(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("LogsPage: %v", err)
	}
	if total != 25 {
		t.Fatalf("total = %d, want 25", total)
	}
	if len(items) != 20 {
		t.Fatalf("default page size = %d, want 20", len(items))
	}
	if items[0].RecurringOrderID != "ro-24" {
		t.Fatalf("expected newest first, got %q", items[0].RecurringOrderID)
	}

	items, _, err = svc.LogsPage(context.Background(), 2, 20)
	if err != nil {
		t.Fatalf("LogsPage p2: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("second page = %d entries, want 5", len(items))
	}
	if items[len(items)-1].RecurringOrderID != "ro-0" {
		t.Fatalf("expected oldest entry last, got %q", items[len(items)-1].RecurringOrderID)
	}
}

func TestLogsPage_EmptyStoreShortCircuits(t *testing.T) {
	db := newTestDB(t)
	svc := &ExecutionLogService{DB: db}

	items, total, err := svc.LogsPage(context.Background(), 3, 50)
	if err != nil {
		t.Fatalf("LogsPage: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected empty result, got total=%d items=%d", total, len(items))
	}
}

func TestClearOld_RejectsNonPositiveDays(t *testing.T) {
	db := newTestDB(t)
	svc := &ExecutionLogService{DB: db}

	for _, days := range []int{0, -1, -30} {
		if _, err := svc.ClearOld(context.Background(), days); !errors.Is(err, ErrInvalidRetention) {
			t.Fatalf("ClearOld(%d): expected ErrInvalidRetention, got %v", days, err)
		}
	}
}

func TestClearOld_SweepsOnlyOlderEntries(t *testing.T) {
	db := newTestDB(t)
	svc := &ExecutionLogService{DB: db}
	now := time.Now().UTC()

	seedExecutionLog(t, db, domain.ExecutionStatusSuccess, now.Add(-10*24*time.Hour))
	seedExecutionLog(t, db, domain.ExecutionStatusError, now.Add(-8*24*time.Hour))
	seedExecutionLog(t, db, domain.ExecutionStatusSuccess, now.Add(-2*24*time.Hour))
	seedExecutionLog(t, db, domain.ExecutionStatusSuccess, now.Add(-time.Hour))

	remaining, err := svc.ClearOld(context.Background(), 7)
	if err != nil {
		t.Fatalf("ClearOld: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("remaining = %d, want 2", remaining)
	}

	logs, err := svc.Logs(context.Background())
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	for _, l := range logs {
		if l.CreatedAt.Before(now.Add(-7 * 24 * time.Hour)) {
			t.Fatalf("entry older than cutoff survived: %+v", l)
		}
	}
}
