// v0
// internal/service/service_test.go
package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/achievement"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/analytics"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/store"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type failingStore struct {
	*store.MemoryStore
	err error
}

func (f *failingStore) Query(context.Context, store.Filter) ([]scan.Event, error) {
	return nil, f.err
}

type cannedStore struct {
	*store.MemoryStore
	events []scan.Event
}

func (c *cannedStore) Query(_ context.Context, f store.Filter) ([]scan.Event, error) {
	var out []scan.Event
	for _, e := range c.events {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []scan.Event
}

func (p *recordingPublisher) PublishLogged(_ context.Context, e scan.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func newService(t *testing.T, st store.Store, pub Publisher) *Service {
	t.Helper()
	return New(st, Options{
		DefaultWindowDays: 30,
		MaxWindowDays:     90,
		CacheTTL:          time.Minute,
		Publisher:         pub,
		Now:               func() time.Time { return fixedNow },
	})
}

func event(user string, cat scan.Category, kg float64, ts time.Time) scan.Event {
	return scan.Event{UserID: user, QRCode: "PAPER_001", ItemName: "Paper", Category: cat, Weight: kg, Unit: scan.UnitKilogram, Timestamp: ts}
}

func TestReadYourWrites(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, store.NewMemoryStore(), nil)

	before, err := svc.Analytics(ctx, "alice", 7)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if analytics.TotalsOf(before.Buckets).Total != 0 {
		t.Fatalf("expected empty series")
	}
	allBefore, _ := svc.Analytics(ctx, "", 7)

	if _, err := svc.Log(ctx, event("alice", scan.CategoryDry, 2, fixedNow.Add(-time.Hour)), SourceHTTP); err != nil {
		t.Fatalf("log: %v", err)
	}

	after, err := svc.Analytics(ctx, "alice", 7)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if got := analytics.TotalsOf(after.Buckets); got.Total != 1 || got.Dry.WeightKg != 2 {
		t.Fatalf("append not visible to the following read: %+v", got)
	}
	allAfter, _ := svc.Analytics(ctx, "", 7)
	if analytics.TotalsOf(allAfter.Buckets).Total != analytics.TotalsOf(allBefore.Buckets).Total+1 {
		t.Fatalf("all-users report must also observe the append")
	}

	bob, _ := svc.Analytics(ctx, "bob", 7)
	if analytics.TotalsOf(bob.Buckets).Total != 0 {
		t.Fatalf("other users must not see alice's events")
	}
}

func TestTransientFailureIsNotZeroFilled(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &failingStore{MemoryStore: store.NewMemoryStore(), err: errors.New("connection reset")}, nil)

	series, err := svc.Analytics(ctx, "alice", 7)
	if !errors.Is(err, store.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if series.Buckets != nil {
		t.Fatalf("failed fetch must not yield buckets")
	}
	if _, err := svc.Dashboard(ctx, "alice", 7, analytics.BasisCount); !errors.Is(err, store.ErrTransient) {
		t.Fatalf("expected transient dashboard error, got %v", err)
	}
	if _, err := svc.History(ctx, "alice", time.Time{}); !errors.Is(err, store.ErrTransient) {
		t.Fatalf("expected transient history error, got %v", err)
	}
}

func TestWindowLimits(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), nil)
	ctx := context.Background()

	if _, err := svc.Analytics(ctx, "alice", 0); !errors.Is(err, analytics.ErrInvalidWindow) {
		t.Fatalf("expected invalid window, got %v", err)
	}
	if _, err := svc.Analytics(ctx, "alice", 91); !errors.Is(err, ErrWindowTooLarge) {
		t.Fatalf("expected window too large, got %v", err)
	}
	series, err := svc.Analytics(ctx, "alice", 90)
	if err != nil || len(series.Buckets) != 90 {
		t.Fatalf("expected 90 buckets, got %d (%v)", len(series.Buckets), err)
	}
}

func TestLogRejectsInvalidEvents(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), nil)
	_, err := svc.Log(context.Background(), event("alice", "plastic", 1, fixedNow), SourceHTTP)
	if !errors.Is(err, scan.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	stats, _ := svc.Stats(context.Background(), "alice")
	if stats.TotalScans != 0 {
		t.Fatalf("rejected event must not be stored")
	}
}

func TestDashboardAchievementsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, store.NewMemoryStore(), nil)

	for d := 0; d < 7; d++ {
		if _, err := svc.Log(ctx, event("alice", scan.CategoryWet, 1, fixedNow.AddDate(0, 0, -d)), SourceHTTP); err != nil {
			t.Fatalf("log: %v", err)
		}
	}

	week, err := svc.Dashboard(ctx, "alice", 7, analytics.BasisCount)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if week.ActiveDays != 7 || len(week.NewlyUnlocked) != 2 {
		t.Fatalf("expected first scan and week streak unlocked, got %+v", week.NewlyUnlocked)
	}

	narrow, err := svc.Dashboard(ctx, "alice", 1, analytics.BasisCount)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	for _, b := range narrow.Achievements {
		if b.ID == achievement.WeekStreak && !b.Unlocked {
			t.Fatalf("week streak must stay unlocked for the session")
		}
	}
	if len(narrow.NewlyUnlocked) != 0 {
		t.Fatalf("expected nothing new, got %v", narrow.NewlyUnlocked)
	}
	if narrow.RecyclingRate != 0 || narrow.Shares[scan.CategoryWet] != 100 {
		t.Fatalf("unexpected shares %+v rate %d", narrow.Shares, narrow.RecyclingRate)
	}
}

func TestHistoryAndStats(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, store.NewMemoryStore(), nil)

	for i, c := range []scan.Category{scan.CategoryDry, scan.CategoryWet, scan.CategoryDry} {
		if _, err := svc.Log(ctx, event("alice", c, 1, fixedNow.Add(time.Duration(-i)*time.Hour)), SourceHTTP); err != nil {
			t.Fatalf("log: %v", err)
		}
	}
	if _, err := svc.Log(ctx, event("bob", scan.CategoryEWaste, 1, fixedNow), SourceHTTP); err != nil {
		t.Fatalf("log: %v", err)
	}

	hist, err := svc.History(ctx, "alice", time.Time{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("expected 3 events, got %d", len(hist))
	}
	for i := 1; i < len(hist); i++ {
		if hist[i].Timestamp.After(hist[i-1].Timestamp) {
			t.Fatalf("history must be newest first")
		}
	}

	stats, err := svc.Stats(ctx, "alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalScans != 3 || stats.CategoryWiseCount[scan.CategoryDry] != 2 || stats.CategoryWiseCount[scan.CategoryHazardous] != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestPublisherSkipsKafkaSourcedEvents(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newService(t, store.NewMemoryStore(), pub)

	if _, err := svc.Log(ctx, event("alice", scan.CategoryDry, 1, fixedNow), SourceHTTP); err != nil {
		t.Fatalf("log: %v", err)
	}
	if _, err := svc.Log(ctx, event("alice", scan.CategoryDry, 1, fixedNow), SourceKafka); err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].ID == "" {
		t.Fatalf("expected exactly the http event to be published, got %d", len(pub.events))
	}
}

func TestExportDocument(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, store.NewMemoryStore(), nil)

	_, _ = svc.Log(ctx, event("alice", scan.CategoryDry, 10, fixedNow), SourceHTTP)
	_, _ = svc.Log(ctx, event("alice", scan.CategoryDry, 10, fixedNow.AddDate(0, 0, -20)), SourceHTTP)

	doc, err := svc.Export(ctx, "alice", 7)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(doc.Events) != 1 || len(doc.Series) != 7 || doc.Totals.Total != 1 {
		t.Fatalf("unexpected document: events=%d series=%d total=%d", len(doc.Events), len(doc.Series), doc.Totals.Total)
	}
	if doc.Impact.CO2SavedKg < 6.99 || doc.Impact.CO2SavedKg > 7.01 {
		t.Fatalf("unexpected impact %+v", doc.Impact)
	}
	if !doc.ExportDate.Equal(fixedNow) {
		t.Fatalf("unexpected export date %v", doc.ExportDate)
	}
}

func TestExportListsOnlyCountedEvents(t *testing.T) {
	ctx := context.Background()
	st := &cannedStore{MemoryStore: store.NewMemoryStore(), events: []scan.Event{
		event("alice", scan.CategoryWet, 1, fixedNow.Add(-time.Hour)),
		event("alice", scan.CategoryDry, 1, fixedNow.AddDate(0, 0, 1)),
		event("alice", scan.Category("plastic"), 1, fixedNow.Add(-2*time.Hour)),
		event("alice", scan.CategoryDry, 1, fixedNow.AddDate(0, 0, -3)),
	}}
	svc := newService(t, st, nil)

	doc, err := svc.Export(ctx, "alice", 7)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(doc.Events) != doc.Totals.Total {
		t.Fatalf("event list (%d) disagrees with totals (%d)", len(doc.Events), doc.Totals.Total)
	}
	if len(doc.Events) != 2 {
		t.Fatalf("expected the two in-window known-category events, got %+v", doc.Events)
	}
	if !doc.Events[0].Timestamp.Before(doc.Events[1].Timestamp) {
		t.Fatalf("events not in chronological order: %+v", doc.Events)
	}
	for _, e := range doc.Events {
		if !e.Category.Valid() || e.Timestamp.After(fixedNow) {
			t.Fatalf("uncounted event exported: %+v", e)
		}
	}
}

func TestClearPurgesCachedReports(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, store.NewMemoryStore(), nil)
	_, _ = svc.Log(ctx, event("alice", scan.CategoryDry, 1, fixedNow), SourceCLI)
	_, _ = svc.Analytics(ctx, "alice", 7)

	n, err := svc.Clear(ctx)
	if err != nil || n != 1 {
		t.Fatalf("clear: n=%d err=%v", n, err)
	}
	series, _ := svc.Analytics(ctx, "alice", 7)
	if analytics.TotalsOf(series.Buckets).Total != 0 {
		t.Fatalf("cached report survived clear")
	}
}
