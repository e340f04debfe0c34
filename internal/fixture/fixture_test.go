// v0
// internal/fixture/fixture_test.go
package fixture

import (
	"testing"
	"time"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/analytics"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/catalog"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

func TestGenerateStaysInWindowAndIsValid(t *testing.T) {
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	ref := time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC)
	events, err := Generate(Options{UserID: "demo", Days: 31, Ref: ref, Seed: 7}, cat)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(events) < 31*5 {
		t.Fatalf("expected at least 5 events per day, got %d", len(events))
	}
	for _, e := range events {
		if err := scan.Validate(e); err != nil {
			t.Fatalf("generated invalid event %+v: %v", e, err)
		}
		if e.Timestamp.After(ref) {
			t.Fatalf("event in the future: %v", e.Timestamp)
		}
	}

	series, err := analytics.Aggregate(events, 31, ref)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got := analytics.TotalsOf(series.Buckets).Total; got != len(events) {
		t.Fatalf("expected every event inside the window, got %d of %d", got, len(events))
	}
	if analytics.DistinctActiveDays(series.Buckets) != 31 {
		t.Fatalf("expected activity on every day")
	}

	again, _ := Generate(Options{UserID: "demo", Days: 31, Ref: ref, Seed: 7}, cat)
	if len(again) != len(events) || again[10] != events[10] {
		t.Fatalf("same seed must produce the same events")
	}
}

func TestGenerateRejectsEmptyWindow(t *testing.T) {
	cat, _ := catalog.Load()
	if _, err := Generate(Options{Days: 0}, cat); err == nil {
		t.Fatalf("expected error")
	}
}
