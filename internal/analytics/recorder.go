package analytics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gridsense-io/site-analytics-service/internal/models"
)

// unknownGeo is stored when the edge supplies no geo header.
const unknownGeo = "Unknown"

// PageView is one navigation to record, with the request-derived
// fields already extracted (see ClientInfoFromHeaders).
type PageView struct {
	Page      string
	Referrer  string
	SessionID string
	Country   string
	City      string
	UserAgent string
}

// ClientInfoFromHeaders derives best-effort geo and user-agent fields
// from the headers the hosting edge/CDN injects. Vercel-style headers
// are consulted first, Cloudflare's country header as a fallback, and
// the "Unknown" sentinel fills anything missing. City values arrive
// URL-escaped from the edge and are unescaped best-effort.
func ClientInfoFromHeaders(h http.Header) (country, city, userAgent string) {
	country = h.Get("X-Vercel-IP-Country")
	if country == "" {
		country = h.Get("CF-IPCountry")
	}
	if country == "" {
		country = unknownGeo
	}

	city = h.Get("X-Vercel-IP-City")
	if city == "" {
		city = unknownGeo
	} else if unescaped, err := url.QueryUnescape(city); err == nil {
		city = unescaped
	}

	return country, city, h.Get("User-Agent")
}

// Record appends an immutable PageViewEvent and folds the view into
// today's DailyAggregate (today = server wall clock in UTC).
//
// The two writes are logically separate operations, not one
// transaction: an aggregate update failing after the event insert
// leaves a raw event without its counter, which the design accepts.
// Both aggregate mutations go through the store's atomic increment and
// set-union primitives, so concurrent first-of-day requests cannot
// lose counts.
func (s *Service) Record(ctx context.Context, view PageView, now time.Time) error {
	if strings.TrimSpace(view.Page) == "" {
		return ErrPageRequired
	}

	now = now.UTC()
	country := view.Country
	if country == "" {
		country = unknownGeo
	}
	city := view.City
	if city == "" {
		city = unknownGeo
	}

	ev := &models.PageViewEvent{
		Page:      view.Page,
		Country:   country,
		City:      city,
		UserAgent: view.UserAgent,
		Referrer:  view.Referrer,
		SessionID: view.SessionID,
		Timestamp: now,
	}
	if err := s.store.InsertEvent(ctx, ev); err != nil {
		return fmt.Errorf("insert page view event: %w", err)
	}

	date := now.Format(dateLayout)
	if err := s.store.ApplyPageView(ctx, date, SanitizeKey(view.Page), SanitizeKey(country), now); err != nil {
		return fmt.Errorf("update daily aggregate %s: %w", date, err)
	}

	if view.SessionID != "" {
		if err := s.store.MarkSessionSeen(ctx, date, view.SessionID, now); err != nil {
			return fmt.Errorf("mark session seen %s: %w", date, err)
		}
	}

	s.logger.Debug().
		Str("page", view.Page).
		Str("country", country).
		Str("date", date).
		Msg("page view recorded")

	return nil
}
