package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/SscSPs/stack_budget/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP statuses. Unknown errors are
// logged and reported with fallback only.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	var remoteErr *apperrors.RemoteError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConfirmationRequired):
		logger.Info("Confirmation required", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrPrecondition):
		logger.Warn("Precondition failed", slog.String("error", err.Error()))
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &remoteErr):
		logger.Error("Remote store error", slog.String("error", err.Error()), slog.Int("remote_status", remoteErr.StatusCode))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrCorruptPayload):
		logger.Error("Corrupt payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// bindJSON binds the request body and answers 400 on failure.
func bindJSON(c *gin.Context, logger *slog.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.Warn("Failed to bind JSON", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return false
	}
	return true
}

// bindOptionalJSON binds a body that may be absent. A missing or empty body,
// chunked or not, leaves dst untouched.
func bindOptionalJSON(c *gin.Context, logger *slog.Logger, dst any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind JSON", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return false
	}
	return true
}
