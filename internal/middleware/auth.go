package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/GunarsK-portfolio/user-service/internal/metrics"
	"github.com/GunarsK-portfolio/user-service/internal/models"
	"github.com/GunarsK-portfolio/user-service/internal/service"
	"github.com/GunarsK-portfolio/user-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const currentUserKey = "current_user"

// IdentityResolver maps a bearer token to the user it was issued for.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*models.PublicUser, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved user for handlers. m may be nil.
func RequireAuth(resolver IdentityResolver, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearerToken(c)
		if token == "" {
			abortUnauthorized(c)
			return
		}

		user, err := resolver.ResolveIdentity(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrStorageUnavailable) {
				m.RecordAuth(metrics.OperationResolve, metrics.OutcomeError)
				logger.FromContext(c.Request.Context()).Error("identity lookup failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"success": false,
					"error":   "service temporarily unavailable",
					"message": "service temporarily unavailable",
				})
				return
			}
			m.RecordAuth(metrics.OperationResolve, metrics.OutcomeInvalid)
			abortUnauthorized(c)
			return
		}

		m.RecordAuth(metrics.OperationResolve, metrics.OutcomeSuccess)
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireAuth.
func CurrentUser(c *gin.Context) (*models.PublicUser, bool) {
	value, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.PublicUser)
	return user, ok && user != nil
}

// ExtractBearerToken returns the token from an "Authorization: Bearer"
// header, or an empty string.
func ExtractBearerToken(c *gin.Context) string {
	scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, service.TokenType) {
		return ""
	}
	return strings.TrimSpace(token)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "unauthorized",
		"message": "unauthorized",
	})
}
