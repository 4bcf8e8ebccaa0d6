package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (RecurringOrder{}).TableName() != "recurring_orders" {
		t.Fatalf("RecurringOrder.TableName() = %q; want %q", (RecurringOrder{}).TableName(), "recurring_orders")
	}
	if (Order{}).TableName() != "orders" {
		t.Fatalf("Order.TableName() = %q; want %q", (Order{}).TableName(), "orders")
	}
	if (ExecutionLog{}).TableName() != "execution_logs" {
		t.Fatalf("ExecutionLog.TableName() = %q; want %q", (ExecutionLog{}).TableName(), "execution_logs")
	}
}

func TestMigrations_Indexes_AndRoundTrip(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&RecurringOrder{}, &Order{}, &ExecutionLog{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	// Tables exist
	for _, tbl := range []any{&RecurringOrder{}, &Order{}, &ExecutionLog{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	// Indexes from tags exist
	if !m.HasIndex(&RecurringOrder{}, "idx_user_recurring") {
		t.Fatalf("expected index idx_user_recurring on recurring_orders")
	}
	if !m.HasIndex(&RecurringOrder{}, "NextRunAt") {
		t.Fatalf("expected index on recurring_orders.next_run_at")
	}
	if !m.HasIndex(&ExecutionLog{}, "RecurringOrderID") {
		t.Fatalf("expected index on execution_logs.recurring_order_id")
	}

	now := time.Now().UTC().Truncate(time.Second)

	// Items serialize as JSON and the embedded payment lands in payment_* columns.
	ro := &RecurringOrder{
		ID:           "ro-1",
		UserID:       "u1",
		RestaurantID: "rest-1",
		Items: []OrderItem{
			{ProductID: "p1", Name: "Margherita", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
		Payment:   PaymentMethod{Type: PaymentWallet, WalletID: "w-9"},
		RunEvery:  24 * time.Hour,
		NextRunAt: now.Add(24 * time.Hour),
	}
	if err := db.Create(ro).Error; err != nil {
		t.Fatalf("insert recurring order: %v", err)
	}

	var got RecurringOrder
	if err := db.First(&got, "id = ?", "ro-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0].ProductID != "p1" || got.Items[0].Quantity != 2 {
		t.Fatalf("items did not round-trip: %+v", got.Items)
	}
	if got.Payment.Type != PaymentWallet || got.Payment.WalletID != "w-9" {
		t.Fatalf("payment did not round-trip: %+v", got.Payment)
	}
	if got.RunEvery != 24*time.Hour {
		t.Fatalf("run_every did not round-trip: %v", got.RunEvery)
	}

	// Soft delete hides the row from normal queries but keeps it on disk.
	if err := db.Delete(&RecurringOrder{}, "id = ?", "ro-1").Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	var cnt int64
	if err := db.Model(&RecurringOrder{}).Where("id = ?", "ro-1").Count(&cnt).Error; err != nil {
		t.Fatalf("count after soft delete: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("soft-deleted row still visible, count=%d", cnt)
	}
	if err := db.Unscoped().Model(&RecurringOrder{}).Where("id = ?", "ro-1").Count(&cnt).Error; err != nil {
		t.Fatalf("unscoped count: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("soft-deleted row should remain on disk, count=%d", cnt)
	}
}

func TestExecutionLog_StatusConstraint_AndAutoIncrement(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&ExecutionLog{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	now := time.Now().UTC()
	first := &ExecutionLog{RecurringOrderID: "ro-1", Status: ExecutionStatusSuccess, CreatedAt: now}
	second := &ExecutionLog{RecurringOrderID: "ro-1", Status: ExecutionStatusError, CreatedAt: now}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("insert success entry: %v", err)
	}
	if err := db.Create(second).Error; err != nil {
		t.Fatalf("insert error entry: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("ids should be strictly increasing: %d then %d", first.ID, second.ID)
	}

	// Anything outside success/error is rejected by the check constraint.
	bad := &ExecutionLog{RecurringOrderID: "ro-1", Status: "pending", CreatedAt: now}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check-constraint violation for status %q", bad.Status)
	}
}
