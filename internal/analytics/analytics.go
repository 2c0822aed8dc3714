// Package analytics implements the page-view aggregation core: the
// field-key sanitizer, the event recorder (write path) and the summary
// query engine (read path). Durable state lives entirely in the
// document store behind the Store interface; the package keeps no
// mutable state between requests.
package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridsense-io/site-analytics-service/internal/models"
)

// ErrPageRequired is returned by Record when the tracked page path is
// missing. Handlers map it to 400.
var ErrPageRequired = errors.New("page is required")

// dateLayout formats the UTC calendar-day key of a DailyAggregate.
const dateLayout = "2006-01-02"

// Store is the document-store surface the service depends on. The
// mutation methods must be implemented with the store's atomic
// field-increment and set-union primitives; a read-modify-write of the
// whole aggregate document loses updates under concurrent writers.
type Store interface {
	// InsertEvent appends one immutable PageViewEvent.
	InsertEvent(ctx context.Context, ev *models.PageViewEvent) error

	// ApplyPageView upserts the aggregate for date, atomically adding 1
	// to total_views and to the given sanitized country and page keys.
	ApplyPageView(ctx context.Context, date, pageKey, countryKey string, at time.Time) error

	// MarkSessionSeen adds sessionID to the date's session set and
	// bumps unique_visitors, both in one atomic operation that is a
	// no-op when the session was already seen that day.
	MarkSessionSeen(ctx context.Context, date, sessionID string, at time.Time) error

	// AggregatesSince returns all aggregates with date >= startDate,
	// newest first.
	AggregatesSince(ctx context.Context, startDate string) ([]models.DailyAggregate, error)

	// RecentEvents returns up to limit raw events, newest first.
	RecentEvents(ctx context.Context, limit int) ([]models.PageViewEvent, error)
}

// Service is the analytics core shared by the track and summary
// handlers. Safe for concurrent use.
type Service struct {
	store  Store
	logger zerolog.Logger
}

// NewService wires the analytics core to its document store.
func NewService(store Store, logger *zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "analytics").Logger(),
	}
}
