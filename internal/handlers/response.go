// Package handlers contains HTTP request handlers for the user service.
package handlers

import (
	"errors"
	"net/http"

	"github.com/GunarsK-portfolio/user-service/internal/models"
	"github.com/GunarsK-portfolio/user-service/internal/service"
	"github.com/GunarsK-portfolio/user-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope every JSON endpoint returns.
type Response struct {
	Success bool                   `json:"success"`
	Data    any                    `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Message string                 `json:"message"`
	Meta    *models.PaginationMeta `json:"meta,omitempty"`
}

// RespondSuccess writes a successful envelope.
func RespondSuccess(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{Success: true, Data: data, Message: message})
}

// RespondPaginated writes a successful envelope with pagination metadata.
func RespondPaginated(c *gin.Context, data any, meta models.PaginationMeta, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Message: message, Meta: &meta})
}

// RespondError writes a failed envelope and aborts the chain.
func RespondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: message, Message: message})
}

// LogAndRespondError logs the underlying error and responds with a
// message that does not leak it.
func LogAndRespondError(c *gin.Context, status int, err error, message string) {
	log := logger.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error(message, zap.Error(err), zap.Int("status", status))
	} else {
		log.Warn(message, zap.Error(err), zap.Int("status", status))
	}
	_ = c.Error(err)
	RespondError(c, status, message)
}

// respondServiceError maps service errors to HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		RespondError(c, http.StatusConflict, "account already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrUnauthenticated):
		RespondError(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrUserNotFound):
		RespondError(c, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrStorageUnavailable):
		LogAndRespondError(c, http.StatusServiceUnavailable, err, "service temporarily unavailable")
	default:
		LogAndRespondError(c, http.StatusInternalServerError, err, "internal server error")
	}
}
