// v0
// internal/scan/event.go
package scan

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Category is the closed set of disposal streams a scanned item can belong to.
type Category string

const (
	CategoryDry       Category = "dry"
	CategoryWet       Category = "wet"
	CategoryEWaste    Category = "ewaste"
	CategoryHazardous Category = "hazardous"
)

// Categories lists the closed set in the order used by every report.
var Categories = []Category{CategoryDry, CategoryWet, CategoryEWaste, CategoryHazardous}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryDry, CategoryWet, CategoryEWaste, CategoryHazardous:
		return true
	default:
		return false
	}
}

// Recyclable reports whether items of this category count towards recycling metrics.
func (c Category) Recyclable() bool {
	return c == CategoryDry || c == CategoryEWaste
}

// Unit is the weight unit attached to a logged event.
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitGram     Unit = "g"
)

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	return u == UnitKilogram || u == UnitGram
}

// Impact mirrors the optional per-item impact hint sent by scanning clients.
// It is stored as given and never used by the aggregation.
type Impact struct {
	CO2Saved    float64 `json:"co2Saved" bson:"co2Saved"`
	EnergySaved float64 `json:"energySaved" bson:"energySaved"`
}

// Event is a single logged disposal action. Once stored it is never mutated.
type Event struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId,omitempty" bson:"userId,omitempty"`
	QRCode    string    `json:"qrCode" bson:"qrCode"`
	ItemName  string    `json:"itemName" bson:"itemName"`
	Category  Category  `json:"category" bson:"category"`
	Weight    float64   `json:"weight" bson:"weight"`
	Unit      Unit      `json:"unit" bson:"unit"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Impact    *Impact   `json:"impact,omitempty" bson:"impact,omitempty"`
}

// WeightKg returns the event weight normalised to kilograms. Unknown units are
// treated as kilograms, matching the default applied on append.
func (e Event) WeightKg() float64 {
	if e.Unit == UnitGram {
		return e.Weight / 1000
	}
	return e.Weight
}

// Day returns the UTC calendar day of the event as YYYY-MM-DD.
func (e Event) Day() string {
	return DayKey(e.Timestamp)
}

// DayLayout is the key format shared by buckets, exports and storage queries.
const DayLayout = "2006-01-02"

// DayKey formats t as a UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ErrValidation is matched by every ValidationError through errors.Is.
var ErrValidation = errors.New("invalid scan event")

// ValidationError describes why an event was rejected on append.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid scan event: %s %s", e.Field, e.Reason)
}

// Is lets callers match any validation failure with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Normalize trims identifying fields and fills the unit default. It does not
// assign ids or timestamps; that is the store's job.
func Normalize(e Event) Event {
	e.UserID = strings.TrimSpace(e.UserID)
	e.QRCode = strings.TrimSpace(e.QRCode)
	e.ItemName = strings.TrimSpace(e.ItemName)
	e.Category = Category(strings.ToLower(strings.TrimSpace(string(e.Category))))
	e.Unit = Unit(strings.ToLower(strings.TrimSpace(string(e.Unit))))
	if e.Unit == "" {
		e.Unit = UnitKilogram
	}
	if !e.Timestamp.IsZero() {
		e.Timestamp = e.Timestamp.UTC()
	}
	return e
}

// Validate checks the append-time invariants of an already normalised event.
func Validate(e Event) error {
	if e.QRCode == "" {
		return &ValidationError{Field: "qrCode", Reason: "is required"}
	}
	if e.ItemName == "" {
		return &ValidationError{Field: "itemName", Reason: "is required"}
	}
	if e.Category == "" {
		return &ValidationError{Field: "category", Reason: "is required"}
	}
	if !e.Category.Valid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("%q is not one of dry, wet, ewaste, hazardous", e.Category)}
	}
	if e.Weight < 0 || math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
		return &ValidationError{Field: "weight", Reason: "must be a non-negative number"}
	}
	if !e.Unit.Valid() {
		return &ValidationError{Field: "unit", Reason: fmt.Sprintf("%q is not one of kg, g", e.Unit)}
	}
	return nil
}
