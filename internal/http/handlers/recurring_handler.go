// Recurring order definition HTTP handlers.
//
// This file exposes REST endpoints for the definition lifecycle:
//   - POST   /recurring/orders              (create)
//   - GET    /recurring/orders              (list)
//   - GET    /recurring/orders/{id}         (fetch)
//   - POST   /recurring/orders/{id}/pause   (pause)
//   - POST   /recurring/orders/{id}/resume  (resume)
//   - DELETE /recurring/orders/{id}         (delete)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. The execution core itself never
// sees these endpoints; it reads definitions only through the due-orders
// provider.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/domain"
	"github.com/tbourn/go-recurring-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// RecurringOrderService defines definition lifecycle operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RecurringOrderService interface {
	// Create validates and persists a new definition for userID.
	Create(ctx context.Context, userID, restaurantID string, items []domain.OrderItem, payment domain.PaymentMethod, runEvery time.Duration) (*domain.RecurringOrder, error)
	// List returns all definitions for a user.
	List(ctx context.Context, userID string) ([]domain.RecurringOrder, error)
	// Get fetches one definition, enforcing ownership.
	Get(ctx context.Context, userID, id string) (*domain.RecurringOrder, error)
	// SetPaused pauses or resumes a definition.
	SetPaused(ctx context.Context, userID, id string, paused bool) error
	// Delete removes a definition (its execution logs survive).
	Delete(ctx context.Context, userID, id string) error
}

// SchedulerService defines the execution-core control surface consumed by
// HTTP handlers: run-state transitions, the manual trigger, and status.
type SchedulerService interface {
	// Start arms the periodic trigger (idempotent).
	Start(ctx context.Context)
	// Stop disarms the periodic trigger (idempotent, cooperative).
	Stop()
	// Running reports the current run state.
	Running() bool
	// Interval is the configured poll interval.
	Interval() time.Duration
	// ExecuteAllPending runs every currently due order and reports the count.
	ExecuteAllPending(ctx context.Context) (int, error)
}

// StatsService exposes derived service statistics.
type StatsService interface {
	ServiceStats(ctx context.Context) (services.ServiceStats, error)
}

// ExecutionLogService exposes read and retention operations over the
// execution log store.
type ExecutionLogService interface {
	LogsPage(ctx context.Context, page, pageSize int) ([]domain.ExecutionLog, int64, error)
	ClearOld(ctx context.Context, daysToKeep int) (int64, error)
}

// Handlers bundles the services consumed by the HTTP layer.
type Handlers struct {
	roSvc    RecurringOrderService
	schedSvc SchedulerService
	statsSvc StatsService
	logSvc   ExecutionLogService

	// DB and IdempotencyTTL support replay detection on the manual trigger.
	DB             *gorm.DB
	IdempotencyTTL time.Duration
	// RetentionDays is the default daysToKeep for the log retention endpoint.
	RetentionDays int
}

// New constructs the handler set.
func New(roSvc RecurringOrderService, schedSvc SchedulerService, statsSvc StatsService, logSvc ExecutionLogService) *Handlers {
	return &Handlers{
		roSvc:          roSvc,
		schedSvc:       schedSvc,
		statsSvc:       statsSvc,
		logSvc:         logSvc,
		IdempotencyTTL: 24 * time.Hour,
		RetentionDays:  30,
	}
}

// userID extracts the caller identity: context (auth middleware) → X-User-ID
// header → development fallback.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if s := c.GetHeader("X-User-ID"); s != "" {
		return s
	}
	return "demo-user"
}

//
// Requests
//

// OrderItemRequest is one template line in a create payload.
type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required" example:"prod-42"`
	Name      string `json:"name,omitempty" example:"Margherita"`
	Quantity  int    `json:"quantity" binding:"required,min=1" example:"2"`
}

// PaymentMethodRequest carries the configured payment method. The type is not
// validated here: malformed methods are accepted and fail at execution time,
// which is the PaymentValidator's single point of authority.
type PaymentMethodRequest struct {
	Type      string `json:"type" example:"wallet"`
	WalletID  string `json:"wallet_id,omitempty" example:"wal-7"`
	CardToken string `json:"card_token,omitempty"`
}

// CreateRecurringOrderRequest is the JSON payload for creating a definition.
// RunEvery is a Go duration string (e.g. "24h", "72h30m").
type CreateRecurringOrderRequest struct {
	RestaurantID string               `json:"restaurant_id" binding:"required" example:"rest-9"`
	Items        []OrderItemRequest   `json:"items" binding:"required,min=1,dive"`
	Payment      PaymentMethodRequest `json:"payment"`
	RunEvery     string               `json:"run_every" binding:"required" example:"24h"`
}

// CreateRecurringOrder godoc
// @ID          createRecurringOrder
// @Summary     Create a recurring order definition
// @Tags        Recurring
// @Accept      json
// @Produce     json
// @Param       X-User-ID header string false "User ID (demo header)"
// @Param       body body handlers.CreateRecurringOrderRequest true "Definition payload"
// @Success     201 {object} domain.RecurringOrder
// @Failure     400 {object} handlers.ErrorResponse "Invalid payload"
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /recurring/orders [post]
func (h *Handlers) CreateRecurringOrder(c *gin.Context) {
	var req CreateRecurringOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload: "+err.Error())
		return
	}
	runEvery, err := time.ParseDuration(req.RunEvery)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "run_every must be a duration like \"24h\"")
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderItem{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity})
	}
	payment := domain.PaymentMethod{Type: req.Payment.Type, WalletID: req.Payment.WalletID, CardToken: req.Payment.CardToken}

	ro, err := h.roSvc.Create(c.Request.Context(), userID(c), req.RestaurantID, items, payment, runEvery)
	if err != nil {
		switch err {
		case services.ErrEmptyItems:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "items must be non-empty with positive quantities")
		case services.ErrInvalidInterval:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, ro)
}

// ListRecurringOrders godoc
// @ID          listRecurringOrders
// @Summary     List recurring order definitions
// @Tags        Recurring
// @Produce     json
// @Param       X-User-ID header string false "User ID (demo header)"
// @Success     200 {array} domain.RecurringOrder
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /recurring/orders [get]
func (h *Handlers) ListRecurringOrders(c *gin.Context) {
	out, err := h.roSvc.List(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if out == nil {
		out = []domain.RecurringOrder{}
	}
	ok(c, http.StatusOK, out)
}

// GetRecurringOrder godoc
// @ID          getRecurringOrder
// @Summary     Fetch one recurring order definition
// @Tags        Recurring
// @Produce     json
// @Param       X-User-ID header string false "User ID (demo header)"
// @Param       id path string true "Definition ID (UUID)"
// @Success     200 {object} domain.RecurringOrder
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /recurring/orders/{id} [get]
func (h *Handlers) GetRecurringOrder(c *gin.Context) {
	ro, err := h.roSvc.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		switch err {
		case services.ErrRecurringOrderNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recurring order not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ro)
}

// PauseRecurringOrder godoc
// @ID          pauseRecurringOrder
// @Summary     Pause a recurring order definition
// @Tags        Recurring
// @Produce     json
// @Param       id path string true "Definition ID (UUID)"
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /recurring/orders/{id}/pause [post]
func (h *Handlers) PauseRecurringOrder(c *gin.Context) {
	h.setPaused(c, true)
}

// ResumeRecurringOrder godoc
// @ID          resumeRecurringOrder
// @Summary     Resume a paused recurring order definition
// @Tags        Recurring
// @Produce     json
// @Param       id path string true "Definition ID (UUID)"
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /recurring/orders/{id}/resume [post]
func (h *Handlers) ResumeRecurringOrder(c *gin.Context) {
	h.setPaused(c, false)
}

// setPaused is the shared pause/resume implementation.
func (h *Handlers) setPaused(c *gin.Context, paused bool) {
	err := h.roSvc.SetPaused(c.Request.Context(), userID(c), c.Param("id"), paused)
	if err != nil {
		switch err {
		case services.ErrRecurringOrderNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recurring order not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// DeleteRecurringOrder godoc
// @ID          deleteRecurringOrder
// @Summary     Delete a recurring order definition
// @Tags        Recurring
// @Produce     json
// @Param       id path string true "Definition ID (UUID)"
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /recurring/orders/{id} [delete]
func (h *Handlers) DeleteRecurringOrder(c *gin.Context) {
	err := h.roSvc.Delete(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		switch err {
		case services.ErrRecurringOrderNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recurring order not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
