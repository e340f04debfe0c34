// v0
// internal/analytics/aggregate.go
package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

// ErrInvalidWindow is returned when a window shorter than one day is requested.
var ErrInvalidWindow = errors.New("window must cover at least one day")

// CategoryTally holds the count and normalised weight of one category.
type CategoryTally struct {
	Count    int     `json:"count"`
	WeightKg float64 `json:"weightKg"`
}

// Tallies is a fixed per-category breakdown. Field order follows scan.Categories.
type Tallies struct {
	Dry       CategoryTally `json:"dry"`
	Wet       CategoryTally `json:"wet"`
	EWaste    CategoryTally `json:"ewaste"`
	Hazardous CategoryTally `json:"hazardous"`
}

// Of returns the tally for c, or a zero tally for categories outside the closed set.
func (t Tallies) Of(c scan.Category) CategoryTally {
	switch c {
	case scan.CategoryDry:
		return t.Dry
	case scan.CategoryWet:
		return t.Wet
	case scan.CategoryEWaste:
		return t.EWaste
	case scan.CategoryHazardous:
		return t.Hazardous
	default:
		return CategoryTally{}
	}
}

func (t *Tallies) slot(c scan.Category) *CategoryTally {
	switch c {
	case scan.CategoryDry:
		return &t.Dry
	case scan.CategoryWet:
		return &t.Wet
	case scan.CategoryEWaste:
		return &t.EWaste
	case scan.CategoryHazardous:
		return &t.Hazardous
	default:
		return nil
	}
}

// DailyBucket is the per-day, per-category summary of one UTC calendar day.
type DailyBucket struct {
	Date string `json:"date"`
	Tallies
	Total         int     `json:"total"`
	TotalWeightKg float64 `json:"totalWeightKg"`
}

// Series is the result of a windowed aggregation.
type Series struct {
	WindowDays int           `json:"windowDays"`
	Buckets    []DailyBucket `json:"series"`
	// Skipped counts in-window events dropped because of an unknown category.
	Skipped int `json:"skipped"`
}

// Aggregate folds events into exactly windowDays zero-filled UTC day buckets,
// ordered oldest to newest and ending on the UTC day of ref. Events outside
// the window are ignored and events with an unknown category are skipped.
func Aggregate(events []scan.Event, windowDays int, ref time.Time) (Series, error) {
	if windowDays < 1 {
		return Series{}, fmt.Errorf("%w: got %d", ErrInvalidWindow, windowDays)
	}

	last := StartOfDay(ref)
	first := last.AddDate(0, 0, -(windowDays - 1))

	buckets := make([]DailyBucket, windowDays)
	index := make(map[string]int, windowDays)
	for i := 0; i < windowDays; i++ {
		key := scan.DayKey(first.AddDate(0, 0, i))
		buckets[i] = DailyBucket{Date: key}
		index[key] = i
	}

	skipped := 0
	for _, ev := range events {
		i, ok := index[ev.Day()]
		if !ok {
			continue
		}
		b := &buckets[i]
		slot := b.slot(ev.Category)
		if slot == nil {
			skipped++
			continue
		}
		kg := ev.WeightKg()
		slot.Count++
		slot.WeightKg += kg
		b.Total++
		b.TotalWeightKg += kg
	}

	return Series{WindowDays: windowDays, Buckets: buckets, Skipped: skipped}, nil
}

// WindowStart returns the first instant covered by a window of windowDays ending on ref's UTC day.
func WindowStart(windowDays int, ref time.Time) time.Time {
	if windowDays < 1 {
		windowDays = 1
	}
	return StartOfDay(ref).AddDate(0, 0, -(windowDays - 1))
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DistinctActiveDays counts buckets with at least one event.
func DistinctActiveDays(buckets []DailyBucket) int {
	n := 0
	for _, b := range buckets {
		if b.Total > 0 {
			n++
		}
	}
	return n
}
