package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gridsense-io/site-analytics-service/internal/analytics"
	"github.com/gridsense-io/site-analytics-service/internal/auth"
	"github.com/gridsense-io/site-analytics-service/internal/config"
	"github.com/gridsense-io/site-analytics-service/internal/handlers"
	"github.com/gridsense-io/site-analytics-service/internal/session"
)

// HealthChecker is the readiness probe surface of the store.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// NewRouter wires public endpoints and the authenticated read path.
// Public: /health, /ready, POST /api/analytics/track
// Authenticated (bearer): GET /api/analytics/track
func NewRouter(cfg config.Config, db HealthChecker, svc *analytics.Service, sessions *session.Manager, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.CORSOrigin))

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the document store is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Write path stays unauthenticated: it is fired by every page load.
	handlers.RegisterTrackRoutes(r, svc, sessions, logger)

	// Read path fails closed before any store access.
	authGroup := r.Group("/")
	authGroup.Use(auth.BearerMiddleware([]byte(cfg.JWTSecret)))
	handlers.RegisterSummaryRoutes(authGroup, svc, logger)

	return r
}

// corsMiddleware allows the marketing site's origin to fire tracking
// beacons and preflight them. An empty origin config allows any.
func corsMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
