package models

import "time"

// TrackRequest is the POST /api/analytics/track payload.
// sessionId is optional; browser clients that omit it fall back to the
// session cookie managed by the server.
type TrackRequest struct {
	Page      string `json:"page"`
	Referrer  string `json:"referrer,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// PageViewEvent is one tracked navigation. Events are append-only; the
// subsystem never mutates or deletes them.
type PageViewEvent struct {
	Page      string    `json:"page" bson:"page"`
	Country   string    `json:"country" bson:"country"`
	City      string    `json:"city" bson:"city"`
	UserAgent string    `json:"userAgent" bson:"user_agent"`
	Referrer  string    `json:"referrer" bson:"referrer"`
	SessionID string    `json:"sessionId" bson:"session_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// DailyAggregate is the single mutable counter document for one UTC
// calendar day, keyed by its YYYY-MM-DD date string.
//
// Invariants maintained by the recorder:
//   - TotalViews == sum of all Pages values
//   - UniqueVisitors == len(Sessions)
//
// Countries and Pages are keyed by sanitized strings (see SanitizeKey)
// because the backing store treats "." in field paths as nesting.
type DailyAggregate struct {
	Date           string           `json:"date" bson:"_id"`
	TotalViews     int64            `json:"totalViews" bson:"total_views"`
	UniqueVisitors int64            `json:"uniqueVisitors" bson:"unique_visitors"`
	Sessions       []string         `json:"-" bson:"sessions"`
	Countries      map[string]int64 `json:"countries" bson:"countries"`
	Pages          map[string]int64 `json:"pages" bson:"pages"`
	UpdatedAt      time.Time        `json:"updatedAt" bson:"updated_at"`
}

// CountryCount is one row of the topCountries ranking.
type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// PageCount is one row of the topPages ranking. Page holds the
// best-effort unsanitized path for display.
type PageCount struct {
	Page  string `json:"page"`
	Count int64  `json:"count"`
}

// DailyViews is one point of the dailyViews chart series.
type DailyViews struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// Summary is the derived, read-only answer to GET /api/analytics/track.
// It is computed on demand and never persisted.
type Summary struct {
	TotalPageViews int64           `json:"totalPageViews"`
	UniqueVisitors int64           `json:"uniqueVisitors"`
	TopCountries   []CountryCount  `json:"topCountries"`
	TopPages       []PageCount     `json:"topPages"`
	DailyViews     []DailyViews    `json:"dailyViews"`
	RecentVisitors []PageViewEvent `json:"recentVisitors"`
}
