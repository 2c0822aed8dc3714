package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gridsense-io/site-analytics-service/internal/analytics"
	"github.com/gridsense-io/site-analytics-service/internal/models"
	"github.com/gridsense-io/site-analytics-service/internal/session"
)

// writeTimeout bounds the store calls made on behalf of one tracked
// view; the page that triggered the beacon has already rendered, so a
// slow store must fail the beacon rather than hold it.
const writeTimeout = 10 * time.Second

// RegisterTrackRoutes registers the write-path endpoint.
//
// POST /api/analytics/track
// - No authentication: every page load fires it
// - Body: {page, referrer?, sessionId?}
// - 200 {"success":true}; 400 when page is missing; 500 otherwise
//
// Failures are logged with detail server-side and surfaced as generic
// errors: tracking must never disrupt the page that triggered it.
func RegisterTrackRoutes(r gin.IRoutes, svc *analytics.Service, sessions *session.Manager, logger *zerolog.Logger) {
	log := logger.With().Str("component", "track_handler").Logger()

	r.POST("/api/analytics/track", func(c *gin.Context) {
		var req models.TrackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		if req.Page == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page required"})
			return
		}

		// Explicit sessionId from the tracking script wins; browser
		// clients without one fall back to the session cookie.
		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = sessions.GetOrCreate(c)
		}

		country, city, userAgent := analytics.ClientInfoFromHeaders(c.Request.Header)

		ctx, cancel := context.WithTimeout(c.Request.Context(), writeTimeout)
		defer cancel()

		err := svc.Record(ctx, analytics.PageView{
			Page:      req.Page,
			Referrer:  req.Referrer,
			SessionID: sessionID,
			Country:   country,
			City:      city,
			UserAgent: userAgent,
		}, time.Now())

		if errors.Is(err, analytics.ErrPageRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page required"})
			return
		}
		if err != nil {
			log.Error().Err(err).Str("page", req.Page).Msg("failed to record page view")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to track page view"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	})
}
