package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/SscSPs/stack_budget/internal/apperrors"
	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/middleware"
	"github.com/gin-gonic/gin"
)

const maxImportBytes = 10 << 20

type backupHandler struct {
	backupService portssvc.BackupSvc
}

// RegisterBackupRoutes registers the export and import routes.
func RegisterBackupRoutes(rg *gin.RouterGroup, backupService portssvc.BackupSvc) {
	h := &backupHandler{backupService: backupService}

	backup := rg.Group("/backup")
	{
		backup.GET("/export", h.export)
		backup.POST("/import", h.importFile)
	}
}

func (h *backupHandler) export(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	res, err := h.backupService.Export(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to export")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Data(http.StatusOK, "application/json", res.Content)
}

// importFile merges the request body onto the document. It needs
// ?confirm=true because it overwrites the keys present in the file.
func (h *backupHandler) importFile(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes+1))
	if err != nil {
		logger.Warn("Failed to read import body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}
	if len(data) > maxImportBytes {
		logger.Warn("Rejected oversized import file", slog.Int("limit", maxImportBytes))
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Import file exceeds %d bytes", maxImportBytes)})
		return
	}

	err = h.backupService.Import(c.Request.Context(), data, c.Query("confirm") == "true")
	if errors.Is(err, apperrors.ErrCorruptPayload) {
		logger.Warn("Rejected import file", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, logger, err, "Failed to import")
		return
	}
	logger.Info("Backup imported", slog.Int("bytes", len(data)))
	c.Status(http.StatusNoContent)
}
