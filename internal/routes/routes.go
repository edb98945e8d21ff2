// Package routes defines HTTP routes for the user service.
package routes

import (
	"github.com/GunarsK-portfolio/user-service/docs"
	"github.com/GunarsK-portfolio/user-service/internal/config"
	"github.com/GunarsK-portfolio/user-service/internal/handlers"
	"github.com/GunarsK-portfolio/user-service/internal/metrics"
	"github.com/GunarsK-portfolio/user-service/internal/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Auth   *handlers.AuthHandler
	Users  *handlers.UserHandler
	Health *handlers.HealthHandler
}

// Setup configures middleware and all HTTP routes for the application.
func Setup(router *gin.Engine, h Handlers, resolver middleware.IdentityResolver, cfg *config.Config, m *metrics.Metrics, log *zap.Logger) {
	router.Use(
		gin.Recovery(),
		middleware.CorrelationID(log),
		middleware.RequestLogger(),
		m.Middleware(),
		middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)),
	)

	// Health checks
	router.GET("/health", h.Health.Check)
	router.GET("/health/live", h.Health.Live)
	router.GET("/health/ready", h.Health.Ready)
	// Metrics
	router.GET("/metrics", m.Handler())

	requireAuth := middleware.RequireAuth(resolver, m)

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.GET("/me", requireAuth, h.Auth.Me)
	}

	users := v1.Group("/users", requireAuth)
	{
		users.GET("", h.Users.List)
		users.GET("/:id", h.Users.Get)
		users.PUT("/:id", h.Users.Update)
		users.PATCH("/:id/preferences", h.Users.UpdatePreferences)
		users.DELETE("/:id", h.Users.Delete)
	}

	// Swagger documentation (only if SWAGGER_HOST is configured)
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
