package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gridsense-io/site-analytics-service/internal/analytics"
	"github.com/gridsense-io/site-analytics-service/internal/auth"
)

// readTimeout bounds the window scan; the admin dashboard would rather
// see an error than hang.
const readTimeout = 15 * time.Second

// RegisterSummaryRoutes registers the read-path endpoint. The route
// group it joins must already enforce bearer authentication, so an
// unauthorized request is rejected before any store read.
//
// GET /api/analytics/track?range={7|30|365}
// - Unrecognized ranges silently fall back to 30 (see NormalizeRange)
// - 200 with the assembled Summary; 500 generic on store failure
func RegisterSummaryRoutes(r gin.IRoutes, svc *analytics.Service, logger *zerolog.Logger) {
	log := logger.With().Str("component", "summary_handler").Logger()

	r.GET("/api/analytics/track", func(c *gin.Context) {
		rangeDays := analytics.NormalizeRange(c.Query("range"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
		defer cancel()

		summary, err := svc.Summarize(ctx, rangeDays, time.Now())
		if err != nil {
			log.Error().Err(err).
				Int("range_days", rangeDays).
				Str("subject", auth.Subject(c)).
				Msg("failed to build analytics summary")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analytics"})
			return
		}

		c.JSON(http.StatusOK, summary)
	})
}
