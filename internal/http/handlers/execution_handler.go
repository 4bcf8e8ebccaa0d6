// Execution core HTTP handlers.
//
// This file exposes the host-facing surface of the execution core:
//   - POST   /recurring/execute          (manual trigger, idempotency-aware)
//   - GET    /recurring/stats            (derived service statistics)
//   - GET    /recurring/logs             (execution log, newest first, paginated)
//   - DELETE /recurring/logs             (retention sweep)
//   - POST   /recurring/scheduler/start  (arm the periodic trigger)
//   - POST   /recurring/scheduler/stop   (disarm the periodic trigger)
//   - GET    /recurring/scheduler        (run state)
//
// The manual trigger distinguishes "nothing to do" (200, nothing_pending)
// from "did work" (202, executed count), and supports Idempotency-Key replays
// so a retried trigger does not execute the due set twice.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recurring-backend/internal/domain"
	"github.com/tbourn/go-recurring-backend/internal/http/middleware"
	"github.com/tbourn/go-recurring-backend/internal/repo"
	"github.com/tbourn/go-recurring-backend/internal/services"
	"github.com/tbourn/go-recurring-backend/internal/utils"
)

// idemScopeExecute is the idempotency scope for the manual trigger endpoint.
const idemScopeExecute = "execute_pending"

// ExecuteResponse is the manual trigger's result body.
type ExecuteResponse struct {
	// Status is "executed" or "nothing_pending".
	Status string `json:"status" example:"executed"`
	// Executed is how many due orders were processed.
	Executed int `json:"executed" example:"3"`
}

// LogsResponse is the paginated execution log listing.
type LogsResponse struct {
	Items    []domain.ExecutionLog `json:"items"`
	Total    int64                 `json:"total" example:"42"`
	Page     int                   `json:"page" example:"1"`
	PageSize int                   `json:"page_size" example:"20"`
}

// ClearLogsResponse reports the outcome of a retention sweep.
type ClearLogsResponse struct {
	Retained int64 `json:"retained" example:"17"`
}

// SchedulerStatusResponse reports the scheduler's run state.
type SchedulerStatusResponse struct {
	Running  bool   `json:"running" example:"true"`
	Interval string `json:"interval" example:"1m0s"`
}

// ExecutePending godoc
// @ID          executePending
// @Summary     Execute all currently due recurring orders
// @Description Runs the same validate-materialize-log sequence as a scheduled
// @Description poll for every due order. Honors Idempotency-Key replays.
// @Tags        Execution
// @Produce     json
// @Param       X-User-ID       header string false "User ID (demo header)"
// @Param       Idempotency-Key header string false "Safe-retry key"
// @Success     200 {object} handlers.ExecuteResponse "Nothing pending"
// @Success     202 {object} handlers.ExecuteResponse "Executed"
// @Failure     409 {object} handlers.ErrorResponse "Core not configured"
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /recurring/execute [post]
func (h *Handlers) ExecutePending(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// Serve a stored replay instead of re-running side effects.
	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey && middleware.IsReplay(c) {
		if rec, err := repo.GetIdempotency(ctx, h.DB, uid, idemScopeExecute, key, time.Now().UTC()); err == nil {
			c.Data(rec.Status, "application/json; charset=utf-8", []byte(rec.Result))
			return
		}
	}

	n, err := h.schedSvc.ExecuteAllPending(ctx)
	if err != nil {
		switch err {
		case services.ErrNotConfigured:
			fail(c, http.StatusConflict, ErrCodeConflict, "execution core is not configured yet")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeExecuteFailed, err.Error())
		}
		return
	}

	status := http.StatusAccepted
	resp := ExecuteResponse{Status: "executed", Executed: n}
	if n == 0 {
		status = http.StatusOK
		resp.Status = "nothing_pending"
	}

	// Persist the result for future replays; a duplicate insert just means a
	// concurrent retry won the race.
	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey && h.DB != nil {
		if body, mErr := json.Marshal(resp); mErr == nil {
			_, _ = repo.CreateIdempotency(ctx, h.DB, uid, idemScopeExecute, key, string(body), status, h.IdempotencyTTL)
		}
	}

	ok(c, status, resp)
}

// GetStats godoc
// @ID          getServiceStats
// @Summary     Derived execution statistics
// @Tags        Execution
// @Produce     json
// @Success     200 {object} services.ServiceStats
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /recurring/stats [get]
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.statsSvc.ServiceStats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// ListLogs godoc
// @ID          listExecutionLogs
// @Summary     Execution log entries, most recent first
// @Tags        Execution
// @Produce     json
// @Param       page      query int false "Page (1-based)"    default(1)
// @Param       page_size query int false "Page size (1-100)" default(20)
// @Success     200 {object} handlers.LogsResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /recurring/logs [get]
func (h *Handlers) ListLogs(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), 20), 1, 100)

	items, total, err := h.logSvc.LogsPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.ExecutionLog{}
	}
	ok(c, http.StatusOK, LogsResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// ClearLogs godoc
// @ID          clearExecutionLogs
// @Summary     Remove execution log entries older than N days
// @Tags        Execution
// @Produce     json
// @Param       days query int false "Days to keep (>= 1)"
// @Success     200 {object} handlers.ClearLogsResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /recurring/logs [delete]
func (h *Handlers) ClearLogs(c *gin.Context) {
	days := utils.AtoiDefault(c.Query("days"), h.RetentionDays)
	retained, err := h.logSvc.ClearOld(c.Request.Context(), days)
	if err != nil {
		switch err {
		case services.ErrInvalidRetention:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeClearFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ClearLogsResponse{Retained: retained})
}

// StartScheduler godoc
// @ID          startScheduler
// @Summary     Arm the periodic execution trigger (idempotent)
// @Tags        Scheduler
// @Produce     json
// @Success     200 {object} handlers.SchedulerStatusResponse
// @Router      /recurring/scheduler/start [post]
func (h *Handlers) StartScheduler(c *gin.Context) {
	h.schedSvc.Start(c.Request.Context())
	ok(c, http.StatusOK, SchedulerStatusResponse{
		Running:  h.schedSvc.Running(),
		Interval: h.schedSvc.Interval().String(),
	})
}

// StopScheduler godoc
// @ID          stopScheduler
// @Summary     Disarm the periodic execution trigger (idempotent)
// @Tags        Scheduler
// @Produce     json
// @Success     200 {object} handlers.SchedulerStatusResponse
// @Router      /recurring/scheduler/stop [post]
func (h *Handlers) StopScheduler(c *gin.Context) {
	h.schedSvc.Stop()
	ok(c, http.StatusOK, SchedulerStatusResponse{
		Running:  h.schedSvc.Running(),
		Interval: h.schedSvc.Interval().String(),
	})
}

// SchedulerStatus godoc
// @ID          schedulerStatus
// @Summary     Current scheduler run state
// @Tags        Scheduler
// @Produce     json
// @Success     200 {object} handlers.SchedulerStatusResponse
// @Router      /recurring/scheduler [get]
func (h *Handlers) SchedulerStatus(c *gin.Context) {
	ok(c, http.StatusOK, SchedulerStatusResponse{
		Running:  h.schedSvc.Running(),
		Interval: h.schedSvc.Interval().String(),
	})
}
