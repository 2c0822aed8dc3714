package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gridsense-io/site-analytics-service/internal/models"
)

const (
	// DefaultRangeDays is the reporting window used when the caller
	// supplies no range or an unrecognized one.
	DefaultRangeDays = 30

	// topLimit caps the topCountries / topPages rankings.
	topLimit = 10

	// recentLimit caps the recentVisitors list.
	recentLimit = 10
)

// NormalizeRange maps the raw ?range= query value to a window in days.
// Only 7, 30 and 365 are recognized; anything else falls back to the
// 30-day default rather than being rejected. The fallback-over-reject
// behavior is a deliberate compatibility choice carried over from the
// dashboard this endpoint serves.
func NormalizeRange(raw string) int {
	switch raw {
	case "7":
		return 7
	case "30":
		return 30
	case "365":
		return 365
	default:
		return DefaultRangeDays
	}
}

// Summarize scans every DailyAggregate dated within rangeDays of asOf
// and merges them into a Summary. Uniqueness is computed over the whole
// window: a session active on two different days counts once. This is a
// pure read; no aggregate state is mutated.
func (s *Service) Summarize(ctx context.Context, rangeDays int, asOf time.Time) (*models.Summary, error) {
	asOf = asOf.UTC()
	startDate := asOf.AddDate(0, 0, -rangeDays).Format(dateLayout)

	aggs, err := s.store.AggregatesSince(ctx, startDate)
	if err != nil {
		return nil, fmt.Errorf("load aggregates since %s: %w", startDate, err)
	}

	var totalViews int64
	sessions := make(map[string]struct{})
	countries := make(map[string]int64)
	pages := make(map[string]int64)
	daily := make([]models.DailyViews, 0, len(aggs))

	for _, agg := range aggs {
		totalViews += agg.TotalViews
		for _, sid := range agg.Sessions {
			sessions[sid] = struct{}{}
		}
		for key, n := range agg.Countries {
			countries[key] += n
		}
		for key, n := range agg.Pages {
			pages[key] += n
		}
		daily = append(daily, models.DailyViews{Date: agg.Date, Views: agg.TotalViews})
	}

	// Chronological for charting; aggregates arrive newest first.
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	topCountries := make([]models.CountryCount, 0, topLimit)
	for _, row := range rankCounts(countries, topLimit) {
		topCountries = append(topCountries, models.CountryCount{Country: row.key, Count: row.count})
	}

	topPages := make([]models.PageCount, 0, topLimit)
	for _, row := range rankCounts(pages, topLimit) {
		topPages = append(topPages, models.PageCount{Page: UnsanitizeKey(row.key), Count: row.count})
	}

	// Latest raw events are reported regardless of the window.
	recent, err := s.store.RecentEvents(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("load recent events: %w", err)
	}
	if recent == nil {
		recent = []models.PageViewEvent{}
	}

	return &models.Summary{
		TotalPageViews: totalViews,
		UniqueVisitors: int64(len(sessions)),
		TopCountries:   topCountries,
		TopPages:       topPages,
		DailyViews:     daily,
		RecentVisitors: recent,
	}, nil
}

type countRow struct {
	key   string
	count int64
}

// rankCounts orders a counter map descending by count, breaking ties by
// key so output is deterministic, and truncates to n rows.
func rankCounts(counts map[string]int64, n int) []countRow {
	rows := make([]countRow, 0, len(counts))
	for key, count := range counts {
		rows = append(rows, countRow{key: key, count: count})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})

	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
