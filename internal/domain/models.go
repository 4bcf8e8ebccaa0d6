// Package domain defines the persistence models for recurring order
// definitions, materialized orders, and execution log entries. These types
// are mapped with GORM and form the core data layer of the recurring-order
// backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Payment method types accepted by the execution core. The set is closed:
// anything outside it fails payment validation at execution time.
const (
	PaymentWallet = "wallet"
	PaymentCard   = "card"
	PaymentCash   = "cash"
)

// Execution outcome statuses recorded in the execution log.
const (
	ExecutionStatusSuccess = "success"
	ExecutionStatusError   = "error"
)

// PaymentMethod describes how a recurring order is paid when it executes.
// Exactly one of the method-specific fields is meaningful depending on Type.
//
// Fields:
//   - Type: one of "wallet", "card", "cash". An empty or unknown type makes
//     the method unchargeable and every execution attempt fails validation.
//   - WalletID: wallet account reference (Type == "wallet").
//   - CardToken: opaque processor token (Type == "card"); never a PAN.
type PaymentMethod struct {
	Type      string `json:"type"                 gorm:"type:varchar(16)"`
	WalletID  string `json:"wallet_id,omitempty"  gorm:"type:varchar(64)"`
	CardToken string `json:"card_token,omitempty" gorm:"type:varchar(128)"`
}

// OrderItem is one line of an order template: a product reference and the
// quantity to order.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
}

// RecurringOrder is a saved template that periodically produces concrete
// orders. Definitions are created, paused, and removed through the CRUD
// surface; the execution core only ever reads them.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the definition owner; indexed for retrieval.
//   - RestaurantID: the restaurant the order is placed against.
//   - Items: template line items, stored as a JSON snapshot.
//   - Payment: configured payment method (embedded, payment_* columns).
//   - RunEvery: interval between executions.
//   - NextRunAt: next due instant; a definition is due when NextRunAt <= now
//     and it is not paused. Advanced by the materializer on success.
//   - Paused: user-controlled switch excluding the definition from due sets.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (removed definitions keep their logs).
type RecurringOrder struct {
	ID           string         `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string         `json:"user_id"       gorm:"type:varchar(64);not null;index:idx_user_recurring"`
	RestaurantID string         `json:"restaurant_id" gorm:"type:varchar(64);not null"`
	Items        []OrderItem    `json:"items"         gorm:"type:text;not null;serializer:json"`
	Payment      PaymentMethod  `json:"payment"       gorm:"embedded;embeddedPrefix:payment_"`
	RunEvery     time.Duration  `json:"run_every"     gorm:"not null"`
	NextRunAt    time.Time      `json:"next_run_at"   gorm:"index"`
	Paused       bool           `json:"paused"        gorm:"not null;default:false"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`
}

// TableName returns the database table name for RecurringOrder.
func (RecurringOrder) TableName() string { return "recurring_orders" }

// Order is a concrete, placeable order materialized from a recurring order
// definition. Items are snapshotted at materialization time so later edits
// to the definition do not rewrite order history.
type Order struct {
	ID               string      `json:"id"                 gorm:"type:char(36);primaryKey"`
	RecurringOrderID string      `json:"recurring_order_id" gorm:"type:char(36);not null;index"`
	UserID           string      `json:"user_id"            gorm:"type:varchar(64);not null;index"`
	RestaurantID     string      `json:"restaurant_id"      gorm:"type:varchar(64);not null"`
	Items            []OrderItem `json:"items"              gorm:"type:text;not null;serializer:json"`
	CreatedAt        time.Time   `json:"created_at"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// ExecutionLog records the outcome of one execution attempt for one recurring
// order. Entries are immutable once written; the store is append-only with a
// bounded size enforced at write time (oldest entries evicted first).
//
// The integer primary key is intentionally auto-incrementing: it gives a
// total insertion order even when two entries share a CreatedAt instant, so
// newest-first reads and FIFO eviction both have a stable tiebreaker.
//
// Fields:
//   - OrderID: the materialized order, nil when materialization did not occur.
//   - Status: "success" or "error" (enforced by DB constraint).
//   - ErrorMessage: failure detail, nil on success.
//   - CreatedAt: write-time timestamp assigned by the store.
type ExecutionLog struct {
	ID               uint64    `json:"id"                 gorm:"primaryKey;autoIncrement"`
	RecurringOrderID string    `json:"recurring_order_id" gorm:"type:char(36);not null;index"`
	OrderID          *string   `json:"order_id"           gorm:"type:char(36)"`
	Status           string    `json:"status"             gorm:"type:varchar(16);not null;check:status IN ('success','error')"`
	ErrorMessage     *string   `json:"error_message"      gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at"         gorm:"index"`
}

// TableName returns the database table name for ExecutionLog.
func (ExecutionLog) TableName() string { return "execution_logs" }
