// v0
// internal/analytics/impact.go
package analytics

import "math"

const (
	// CO2PerKg is the CO2 saved per recycled kilogram, shared with the achievement rules.
	CO2PerKg        = 0.7
	co2PerTree      = 21.0
	kwhPerKg        = 2.5
	kwhPerHomeDay   = 30.0
	litersPerKg     = 50.0
	litersPerShower = 65.0
	landfillPerKg   = 0.5
	kgPerGarbageBag = 5.0
)

// Impact is the environmental estimate derived from totals by fixed linear coefficients.
type Impact struct {
	CO2SavedKg            float64 `json:"co2SavedKg"`
	TreesEquivalent       int     `json:"treesEquivalent"`
	EnergySavedKwh        float64 `json:"energySavedKwh"`
	HomeDaysEquivalent    int     `json:"homeDaysEquivalent"`
	WaterSavedLiters      int     `json:"waterSavedLiters"`
	ShowersEquivalent     int     `json:"showersEquivalent"`
	LandfillDivertedKg    int     `json:"landfillDivertedKg"`
	GarbageBagsEquivalent int     `json:"garbageBagsEquivalent"`
}

// RecyclableWeightKg is the dry plus e-waste weight.
func RecyclableWeightKg(t Totals) float64 {
	return t.Dry.WeightKg + t.EWaste.WeightKg
}

// RecyclableCount is the dry plus e-waste item count.
func RecyclableCount(t Totals) int {
	return t.Dry.Count + t.EWaste.Count
}

// DivertedWeightKg is everything kept out of landfill: dry, wet and e-waste.
func DivertedWeightKg(t Totals) float64 {
	return t.Dry.WeightKg + t.Wet.WeightKg + t.EWaste.WeightKg
}

// ImpactOf derives the environmental estimate from totals. Water savings use
// recyclable weight like every other recyclable term.
func ImpactOf(t Totals) Impact {
	recyclable := RecyclableWeightKg(t)
	diverted := DivertedWeightKg(t)

	co2 := recyclable * CO2PerKg
	energy := recyclable * kwhPerKg
	water := round(recyclable * litersPerKg)
	landfill := round(diverted * landfillPerKg)

	return Impact{
		CO2SavedKg:            co2,
		TreesEquivalent:       round(co2 / co2PerTree),
		EnergySavedKwh:        energy,
		HomeDaysEquivalent:    round(energy / kwhPerHomeDay),
		WaterSavedLiters:      water,
		ShowersEquivalent:     round(float64(water) / litersPerShower),
		LandfillDivertedKg:    landfill,
		GarbageBagsEquivalent: round(float64(landfill) / kgPerGarbageBag),
	}
}

func round(v float64) int {
	return int(math.Round(v))
}
