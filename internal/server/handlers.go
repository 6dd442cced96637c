package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"inbox-triage-go/internal/approval"
	"inbox-triage-go/internal/scheduler"
	"inbox-triage-go/internal/store"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	store     store.Store
	scheduler *scheduler.Scheduler
	approval  *approval.Handler
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Store     string    `json:"store"`
	Scheduler string    `json:"scheduler"`
}

// ApprovalRequest carries one literal approval command line.
type ApprovalRequest struct {
	Command string `json:"command" binding:"required"`
}

// NewHandlers creates new HTTP handlers
func NewHandlers(st store.Store, sched *scheduler.Scheduler, appr *approval.Handler) *Handlers {
	return &Handlers{
		store:     st,
		scheduler: sched,
		approval:  appr,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/runs", h.GetRuns)
		api.GET("/runs/:run_id", h.GetRun)

		api.GET("/activities", h.GetActivities)

		api.GET("/drafts", h.GetDrafts)
		api.GET("/drafts/:id", h.GetDraft)
		api.POST("/approvals", h.ApplyApproval)

		api.POST("/scheduler/start", h.StartScheduler)
		api.POST("/scheduler/stop", h.StopScheduler)
		api.POST("/scheduler/run-once", h.RunOnce)
		api.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Store:     "ok",
		Scheduler: "stopped",
	}

	if _, err := h.store.ListRuns(c.Request.Context(), 1); err != nil {
		response.Status = "error"
		response.Store = "error"
		logrus.Errorf("Store health check failed: %v", err)
	}

	if h.scheduler != nil && h.scheduler.IsRunning() {
		response.Scheduler = "running"
	}

	status := http.StatusOK
	if response.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

// GetRuns lists recent run records
func (h *Handlers) GetRuns(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	runs, err := h.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.serverError(c, "failed to list runs", err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

// GetRun returns one run record by run id
func (h *Handlers) GetRun(c *gin.Context) {
	run, err := h.store.GetRunRecord(c.Request.Context(), c.Param("run_id"))
	if err == store.ErrNotFound {
		h.notFound(c, "run not found")
		return
	}
	if err != nil {
		h.serverError(c, "failed to get run", err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetActivities lists stored activities, optionally filtered by label
func (h *Handlers) GetActivities(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	activities, err := h.store.ListActivities(c.Request.Context(), c.Query("label"), limit)
	if err != nil {
		h.serverError(c, "failed to list activities", err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

// GetDrafts lists drafts, optionally filtered by status
func (h *Handlers) GetDrafts(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	drafts, err := h.store.ListDrafts(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		h.serverError(c, "failed to list drafts", err)
		return
	}
	c.JSON(http.StatusOK, drafts)
}

// GetDraft returns one draft by id
func (h *Handlers) GetDraft(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.badRequest(c, "invalid draft id")
		return
	}
	draft, err := h.store.GetDraft(c.Request.Context(), uint(id))
	if err == store.ErrNotFound {
		h.notFound(c, "draft not found")
		return
	}
	if err != nil {
		h.serverError(c, "failed to get draft", err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// ApplyApproval parses and applies one approval command
func (h *Handlers) ApplyApproval(c *gin.Context) {
	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "command is required")
		return
	}

	cmd, err := approval.ParseCommand(req.Command)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	draft, err := h.approval.Apply(c.Request.Context(), cmd)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, draft)
}

// StartScheduler starts the scheduler
func (h *Handlers) StartScheduler(c *gin.Context) {
	if err := h.scheduler.Start(); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// StopScheduler stops the scheduler
func (h *Handlers) StopScheduler(c *gin.Context) {
	if err := h.scheduler.Stop(); err != nil {
		h.serverError(c, "failed to stop scheduler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// RunOnce triggers one triage cycle immediately
func (h *Handlers) RunOnce(c *gin.Context) {
	go func() {
		if err := h.scheduler.RunOnce(); err != nil {
			logrus.Errorf("Manual triage cycle failed: %v", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "triggered"})
}

// GetSchedulerStatus returns scheduler state and the last run result
func (h *Handlers) GetSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":     h.scheduler.IsRunning(),
		"next_run":    h.scheduler.GetNextRun(),
		"last_run":    h.scheduler.GetLastRun(),
		"last_result": h.scheduler.LastResult(),
	})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func (h *Handlers) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: message, Code: http.StatusBadRequest})
}

func (h *Handlers) notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: message, Code: http.StatusNotFound})
}

func (h *Handlers) serverError(c *gin.Context, message string, err error) {
	logrus.Errorf("%s: %v", message, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: message, Code: http.StatusInternalServerError})
}
