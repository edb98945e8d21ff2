package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists the origins allowed to call the API.
	// "*" allows any origin.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration
}

// DefaultCORSConfig returns the methods and headers the API uses.
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", CorrelationIDHeader},
		ExposedHeaders: []string{CorrelationIDHeader},
		MaxAge:         10 * time.Minute,
	}
}

// CORS returns the gin-contrib/cors middleware for config. Requests whose
// Origin is not allowed are rejected with 403; requests without an Origin
// header pass through untouched.
func CORS(config CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  config.AllowedMethods,
		AllowHeaders:  config.AllowedHeaders,
		ExposeHeaders: config.ExposedHeaders,
		MaxAge:        config.MaxAge,
	}

	allowed := make(map[string]bool, len(config.AllowedOrigins))
	for _, origin := range config.AllowedOrigins {
		if strings.TrimSpace(origin) == "*" {
			c.AllowAllOrigins = true
			break
		}
		allowed[normalizeOrigin(origin)] = true
	}
	if !c.AllowAllOrigins {
		// Matching through a func keeps comparisons case-insensitive and
		// tolerant of a trailing slash in the configured origin.
		c.AllowOriginFunc = func(origin string) bool {
			return allowed[normalizeOrigin(origin)]
		}
	}

	return cors.New(c)
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}
