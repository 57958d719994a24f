package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/SscSPs/stack_budget/internal/middleware"
	"github.com/gin-gonic/gin"
)

// syncHandler exposes the sync layer and the lifecycle events that drive
// the auto-refresh.
type syncHandler struct {
	syncService    portssvc.SyncSvc
	refreshService portssvc.RefreshSvc
}

// RegisterSyncRoutes registers the sync and event routes.
func RegisterSyncRoutes(rg *gin.RouterGroup, syncService portssvc.SyncSvc, refreshService portssvc.RefreshSvc) {
	h := &syncHandler{syncService: syncService, refreshService: refreshService}

	sync := rg.Group("/sync")
	{
		sync.POST("/save", h.save)
		sync.POST("/load", h.load)
		sync.GET("/status", h.status)
		sync.PUT("/credentials", h.setCredentials)
	}
	rg.POST("/events/:event", h.event)
}

func (h *syncHandler) save(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var opts dto.SaveOptions
	if !bindOptionalJSON(c, logger, &opts) {
		return
	}
	logger.Info("Received request to save", slog.Bool("create_new", opts.CreateNew))
	if err := h.syncService.Save(c.Request.Context(), opts); err != nil {
		respondError(c, logger, err, "Failed to save")
		return
	}
	c.JSON(http.StatusOK, h.syncService.Status(c.Request.Context()))
}

func (h *syncHandler) load(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var opts dto.LoadOptions
	if !bindOptionalJSON(c, logger, &opts) {
		return
	}
	logger.Info("Received request to load")
	if err := h.syncService.Load(c.Request.Context(), opts); err != nil {
		respondError(c, logger, err, "Failed to load")
		return
	}
	c.JSON(http.StatusOK, h.syncService.Status(c.Request.Context()))
}

func (h *syncHandler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncService.Status(c.Request.Context()))
}

func (h *syncHandler) setCredentials(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var creds dto.Credentials
	if !bindJSON(c, logger, &creds) {
		return
	}
	if err := h.syncService.SetCredentials(c.Request.Context(), creds); err != nil {
		respondError(c, logger, err, "Failed to store credentials")
		return
	}
	c.JSON(http.StatusOK, h.syncService.Status(c.Request.Context()))
}

// event reports a lifecycle event. pageshow reads ?persisted=true.
func (h *syncHandler) event(c *gin.Context) {
	event := dto.RefreshEvent{
		Kind:      dto.RefreshEventKind(c.Param("event")),
		Persisted: c.Query("persisted") == "true",
	}
	result := h.refreshService.Trigger(c.Request.Context(), event)
	middleware.GetLoggerFromContext(c).Debug("Lifecycle event handled",
		slog.String("event", string(event.Kind)),
		slog.Bool("refreshed", result.Refreshed),
		slog.String("skip_reason", result.SkipReason),
	)
	c.JSON(http.StatusOK, result)
}
