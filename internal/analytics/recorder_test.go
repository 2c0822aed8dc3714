package analytics

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestService(st Store) *Service {
	logger := zerolog.Nop()
	return NewService(st, &logger)
}

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

const testDate = "2026-08-29"

func mustRecord(t *testing.T, svc *Service, view PageView) {
	t.Helper()
	if err := svc.Record(context.Background(), view, testNow); err != nil {
		t.Fatalf("Record(%+v) failed: %v", view, err)
	}
}

func TestRecord_EmptyPageFailsWithoutSideEffects(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st)

	for _, page := range []string{"", "   "} {
		err := svc.Record(context.Background(), PageView{Page: page}, testNow)
		if !errors.Is(err, ErrPageRequired) {
			t.Fatalf("Record(page=%q) error = %v, want ErrPageRequired", page, err)
		}
	}
	if st.inserts != 0 || st.applies != 0 || st.marks != 0 {
		t.Fatalf("validation failure touched the store: %d/%d/%d", st.inserts, st.applies, st.marks)
	}
}

// N anonymous views of the same new page: totalViews and the page
// counter track N, uniqueVisitors stays 0.
func TestRecord_AnonymousViewsCountButAreNotUnique(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st)

	const n = 5
	for i := 0; i < n; i++ {
		mustRecord(t, svc, PageView{Page: "/pricing"})
	}

	agg := st.aggs[testDate]
	if agg == nil {
		t.Fatal("no aggregate created")
	}
	if agg.TotalViews != n {
		t.Fatalf("totalViews = %d, want %d", agg.TotalViews, n)
	}
	if agg.Pages["pricing"] != n {
		t.Fatalf("pages[pricing] = %d, want %d", agg.Pages["pricing"], n)
	}
	if agg.UniqueVisitors != 0 || len(agg.Sessions) != 0 {
		t.Fatalf("anonymous views must not count as unique: %d visitors, %d sessions",
			agg.UniqueVisitors, len(agg.Sessions))
	}
}

func TestRecord_SameSessionCountsOncePerDay(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st)

	for i := 0; i < 4; i++ {
		mustRecord(t, svc, PageView{Page: "/", SessionID: "s1"})
	}

	if got := st.aggs[testDate].UniqueVisitors; got != 1 {
		t.Fatalf("uniqueVisitors = %d, want 1", got)
	}
}

func TestRecord_DistinctSessionsEachCount(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st)

	sessions := []string{"a", "b", "c"}
	for _, sid := range sessions {
		mustRecord(t, svc, PageView{Page: "/", SessionID: sid})
	}

	if got := st.aggs[testDate].UniqueVisitors; got != int64(len(sessions)) {
		t.Fatalf("uniqueVisitors = %d, want %d", got, len(sessions))
	}
}

// The concrete scenario from the tracking contract: "/", "/blog",
// "/blog" with sessions s1, s1, s2 on one UTC day.
func TestRecord_MixedDayScenario(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st)

	mustRecord(t, svc, PageView{Page: "/", SessionID: "s1"})
	mustRecord(t, svc, PageView{Page: "/blog", SessionID: "s1"})
	mustRecord(t, svc, PageView{Page: "/blog", SessionID: "s2"})

	agg := st.aggs[testDate]
	if agg.TotalViews != 3 {
		t.Fatalf("totalViews = %d, want 3", agg.TotalViews)
	}
	if agg.Pages["_home_"] != 1 || agg.Pages["blog"] != 2 {
		t.Fatalf("pages = %v, want {_home_:1 blog:2}", agg.Pages)
	}
	if agg.UniqueVisitors != 2 || len(agg.Sessions) != 2 {
		t.Fatalf("uniqueVisitors = %d sessions = %v, want 2 of {s1,s2}", agg.UniqueVisitors, agg.Sessions)
	}

	// Invariant: totalViews equals the sum of page counters.
	var sum int64
	for _, n := range agg.Pages {
		sum += n
	}
	if sum != agg.TotalViews {
		t.Fatalf("sum(pages)=%d != totalViews=%d", sum, agg.TotalViews)
	}
}

func TestRecord_EventKeepsOriginalPageAndServerTimestamp(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st)

	mustRecord(t, svc, PageView{Page: "/blog/my_post", Referrer: "https://duckduckgo.com"})

	if len(st.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(st.events))
	}
	ev := st.events[0]
	if ev.Page != "/blog/my_post" {
		t.Fatalf("event page = %q, want the unsanitized original", ev.Page)
	}
	if !ev.Timestamp.Equal(testNow) {
		t.Fatalf("event timestamp = %v, want server time %v", ev.Timestamp, testNow)
	}
	if ev.Country != "Unknown" || ev.City != "Unknown" {
		t.Fatalf("missing geo must store the Unknown sentinel, got %q/%q", ev.Country, ev.City)
	}
}

func TestRecord_StoreFailurePropagates(t *testing.T) {
	st := newFakeStore()
	st.insertErr = errors.New("store down")
	svc := newTestService(st)

	err := svc.Record(context.Background(), PageView{Page: "/"}, testNow)
	if err == nil || errors.Is(err, ErrPageRequired) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestClientInfoFromHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("X-Vercel-IP-Country", "DE")
	h.Set("X-Vercel-IP-City", "M%C3%BCnchen")
	h.Set("User-Agent", "Mozilla/5.0")

	country, city, ua := ClientInfoFromHeaders(h)
	if country != "DE" || city != "München" || ua != "Mozilla/5.0" {
		t.Fatalf("got %q/%q/%q", country, city, ua)
	}

	country, city, _ = ClientInfoFromHeaders(http.Header{})
	if country != "Unknown" || city != "Unknown" {
		t.Fatalf("missing headers: got %q/%q, want Unknown sentinels", country, city)
	}

	h = http.Header{}
	h.Set("CF-IPCountry", "FR")
	if country, _, _ = ClientInfoFromHeaders(h); country != "FR" {
		t.Fatalf("Cloudflare fallback not consulted, got %q", country)
	}
}
