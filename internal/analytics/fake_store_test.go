package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/gridsense-io/site-analytics-service/internal/models"
)

// fakeStore applies the same accumulation semantics as the Mongo
// adapter, in memory, so recorder tests can assert the aggregate
// invariants and summary tests can seed windows directly.
type fakeStore struct {
	events []models.PageViewEvent
	aggs   map[string]*models.DailyAggregate

	insertErr error
	applyErr  error
	markErr   error

	inserts int
	applies int
	marks   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{aggs: map[string]*models.DailyAggregate{}}
}

func (f *fakeStore) InsertEvent(_ context.Context, ev *models.PageViewEvent) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeStore) ApplyPageView(_ context.Context, date, pageKey, countryKey string, at time.Time) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applies++

	agg, ok := f.aggs[date]
	if !ok {
		agg = &models.DailyAggregate{
			Date:      date,
			Countries: map[string]int64{},
			Pages:     map[string]int64{},
		}
		f.aggs[date] = agg
	}

	agg.TotalViews++
	agg.Countries[countryKey]++
	agg.Pages[pageKey]++
	agg.UpdatedAt = at
	return nil
}

func (f *fakeStore) MarkSessionSeen(_ context.Context, date, sessionID string, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marks++

	agg, ok := f.aggs[date]
	if !ok {
		return nil
	}
	for _, sid := range agg.Sessions {
		if sid == sessionID {
			return nil
		}
	}
	agg.Sessions = append(agg.Sessions, sessionID)
	agg.UniqueVisitors++
	agg.UpdatedAt = at
	return nil
}

func (f *fakeStore) AggregatesSince(_ context.Context, startDate string) ([]models.DailyAggregate, error) {
	var out []models.DailyAggregate
	for date, agg := range f.aggs {
		if date >= startDate {
			out = append(out, *agg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (f *fakeStore) RecentEvents(_ context.Context, limit int) ([]models.PageViewEvent, error) {
	out := make([]models.PageViewEvent, len(f.events))
	copy(out, f.events)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// seedDay inserts a prebuilt aggregate for summary tests.
func (f *fakeStore) seedDay(date string, views, unique int64, sessions []string, countries, pages map[string]int64) {
	if countries == nil {
		countries = map[string]int64{}
	}
	if pages == nil {
		pages = map[string]int64{}
	}
	f.aggs[date] = &models.DailyAggregate{
		Date:           date,
		TotalViews:     views,
		UniqueVisitors: unique,
		Sessions:       sessions,
		Countries:      countries,
		Pages:          pages,
	}
}
