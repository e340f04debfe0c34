// v0
// internal/fixture/fixture.go
package fixture

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/catalog"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

// Options controls demo data generation.
type Options struct {
	UserID string
	Days   int
	Ref    time.Time
	Seed   int64
}

// Generate produces a realistic per-day mix of scans ending on Ref's UTC day.
// The same seed always yields the same events, ids aside.
func Generate(opts Options, cat *catalog.Catalog) ([]scan.Event, error) {
	if opts.Days < 1 {
		return nil, fmt.Errorf("fixture days must be positive, got %d", opts.Days)
	}
	byCategory := make(map[scan.Category][]catalog.Item)
	for _, it := range cat.Items() {
		byCategory[it.Category] = append(byCategory[it.Category], it)
	}
	for _, c := range scan.Categories {
		if len(byCategory[c]) == 0 {
			return nil, fmt.Errorf("catalog has no %s items", c)
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	ref := opts.Ref.UTC()
	day0 := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	var out []scan.Event
	for i := opts.Days - 1; i >= 0; i-- {
		day := day0.AddDate(0, 0, -i)
		counts := map[scan.Category]int{
			scan.CategoryDry: rng.Intn(8) + 2,
			scan.CategoryWet: rng.Intn(6) + 3,
		}
		if rng.Float64() > 0.7 {
			counts[scan.CategoryEWaste] = rng.Intn(2) + 1
		}
		if rng.Float64() > 0.85 {
			counts[scan.CategoryHazardous] = 1
		}
		for _, c := range scan.Categories {
			items := byCategory[c]
			for n := 0; n < counts[c]; n++ {
				it := items[rng.Intn(len(items))]
				at := day.Add(time.Duration(rng.Intn(24*60)) * time.Minute)
				if at.After(ref) {
					at = ref
				}
				out = append(out, scan.Event{
					UserID:    opts.UserID,
					QRCode:    it.Code,
					ItemName:  it.Name,
					Category:  it.Category,
					Weight:    jitter(rng, it.TypicalWeightKg),
					Unit:      scan.UnitKilogram,
					Timestamp: at,
				})
			}
		}
	}
	return out, nil
}

func jitter(rng *rand.Rand, kg float64) float64 {
	w := kg * (0.5 + rng.Float64())
	return math.Round(w*1000) / 1000
}
