// Package middleware provides HTTP middleware for the user service.
package middleware

import (
	"github.com/GunarsK-portfolio/user-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CorrelationIDHeader carries the request correlation id in both directions.
const CorrelationIDHeader = "X-Correlation-ID"

const correlationIDKey = "correlation_id"

// maxCorrelationIDLength bounds caller-supplied ids before they reach logs.
const maxCorrelationIDLength = 128

// CorrelationID reuses the caller's correlation id or generates one, echoes
// it on the response and attaches a logger carrying it to the request
// context.
func CorrelationID(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" || len(id) > maxCorrelationIDLength {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Header(CorrelationIDHeader, id)

		reqLogger := log.With(zap.String(correlationIDKey, id))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLogger))

		c.Next()
	}
}

// GetCorrelationID returns the correlation id of the current request.
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(correlationIDKey)
}
