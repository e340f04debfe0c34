// v0
// internal/scan/event_test.go
package scan

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestValidateRejectsMalformedEvents(t *testing.T) {
	t.Parallel()

	base := Event{QRCode: "PLASTIC_BOTTLE_001", ItemName: "Plastic Bottle", Category: CategoryDry, Weight: 1, Unit: UnitKilogram}

	cases := []struct {
		name  string
		mut   func(e *Event)
		field string
	}{
		{name: "missing qr", mut: func(e *Event) { e.QRCode = "" }, field: "qrCode"},
		{name: "missing item name", mut: func(e *Event) { e.ItemName = "" }, field: "itemName"},
		{name: "missing category", mut: func(e *Event) { e.Category = "" }, field: "category"},
		{name: "unknown category", mut: func(e *Event) { e.Category = "plastic" }, field: "category"},
		{name: "negative weight", mut: func(e *Event) { e.Weight = -0.1 }, field: "weight"},
		{name: "nan weight", mut: func(e *Event) { e.Weight = math.NaN() }, field: "weight"},
		{name: "infinite weight", mut: func(e *Event) { e.Weight = math.Inf(1) }, field: "weight"},
		{name: "negative infinite weight", mut: func(e *Event) { e.Weight = math.Inf(-1) }, field: "weight"},
		{name: "unknown unit", mut: func(e *Event) { e.Unit = "lb" }, field: "unit"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ev := base
			tc.mut(&ev)
			err := Validate(ev)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}

	if err := Validate(base); err != nil {
		t.Fatalf("unexpected error for valid event: %v", err)
	}
}

func TestNormalizeDefaultsUnitAndTrims(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	ev := Normalize(Event{
		UserID:    "  user@example.com ",
		QRCode:    " PAPER_001 ",
		ItemName:  " Paper ",
		Category:  " DRY ",
		Timestamp: time.Date(2024, 3, 1, 2, 0, 0, 0, loc),
	})
	if ev.Unit != UnitKilogram {
		t.Fatalf("expected kg default, got %q", ev.Unit)
	}
	if ev.Category != CategoryDry || ev.QRCode != "PAPER_001" || ev.UserID != "user@example.com" {
		t.Fatalf("unexpected normalised event: %+v", ev)
	}
	if ev.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", ev.Timestamp.Location())
	}
	if ev.Day() != "2024-02-29" {
		t.Fatalf("expected UTC day 2024-02-29, got %s", ev.Day())
	}
}

func TestWeightKgNormalisesGrams(t *testing.T) {
	if got := (Event{Weight: 500, Unit: UnitGram}).WeightKg(); got != 0.5 {
		t.Fatalf("expected 0.5 kg, got %v", got)
	}
	if got := (Event{Weight: 2, Unit: UnitKilogram}).WeightKg(); got != 2 {
		t.Fatalf("expected 2 kg, got %v", got)
	}
}
