// v0
// internal/analytics/totals.go
package analytics

import (
	"math"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

// Totals is the element-wise sum of a series.
type Totals struct {
	Tallies
	Total         int     `json:"total"`
	TotalWeightKg float64 `json:"totalWeightKg"`
}

// Basis selects whether shares are computed over item counts or weights.
type Basis string

const (
	BasisCount  Basis = "count"
	BasisWeight Basis = "weight"
)

// ParseBasis maps a query value onto a Basis. Empty input selects counts.
func ParseBasis(raw string) (Basis, bool) {
	switch Basis(raw) {
	case "", BasisCount:
		return BasisCount, true
	case BasisWeight:
		return BasisWeight, true
	default:
		return "", false
	}
}

// TotalsOf sums every bucket of the series.
func TotalsOf(buckets []DailyBucket) Totals {
	var t Totals
	for _, b := range buckets {
		for _, c := range scan.Categories {
			src := b.Of(c)
			dst := t.slot(c)
			dst.Count += src.Count
			dst.WeightKg += src.WeightKg
		}
		t.Total += b.Total
		t.TotalWeightKg += b.TotalWeightKg
	}
	return t
}

func (t Totals) value(c scan.Category, basis Basis) float64 {
	tally := t.Of(c)
	if basis == BasisWeight {
		return tally.WeightKg
	}
	return float64(tally.Count)
}

func (t Totals) whole(basis Basis) float64 {
	if basis == BasisWeight {
		return t.TotalWeightKg
	}
	return float64(t.Total)
}

// SharePercent returns the rounded share of c in the totals, or 0 when the totals are empty.
func SharePercent(t Totals, c scan.Category, basis Basis) int {
	return percent(t.value(c, basis), t.whole(basis))
}

// Shares returns SharePercent for every category keyed by category name.
func Shares(t Totals, basis Basis) map[scan.Category]int {
	out := make(map[scan.Category]int, len(scan.Categories))
	for _, c := range scan.Categories {
		out[c] = SharePercent(t, c, basis)
	}
	return out
}

// RecyclingRate is the rounded share of dry and e-waste items in the totals.
func RecyclingRate(t Totals, basis Basis) int {
	part := t.value(scan.CategoryDry, basis) + t.value(scan.CategoryEWaste, basis)
	return percent(part, t.whole(basis))
}

func percent(part, whole float64) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * part / whole))
}
