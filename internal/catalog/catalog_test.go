// v0
// internal/catalog/catalog_test.go
package catalog

import (
	"errors"
	"testing"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	items := c.Items()
	if len(items) != 7 {
		t.Fatalf("expected 7 items, got %d", len(items))
	}
	seen := map[scan.Category]bool{}
	for _, it := range items {
		seen[it.Category] = true
		if len(it.Instructions) == 0 {
			t.Fatalf("item %s has no instructions", it.Code)
		}
	}
	for _, cat := range scan.Categories {
		if !seen[cat] {
			t.Fatalf("catalogue misses category %s", cat)
		}
	}
}

func TestLookup(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cases := []struct {
		code string
		want error
		cat  scan.Category
	}{
		{code: "BATTERY_001", cat: scan.CategoryEWaste},
		{code: " paint_can_001 ", cat: scan.CategoryHazardous},
		{code: "PLASTIC_BOTTLE_999", want: ErrUnknownItem},
		{code: "WOOD_001", want: ErrMalformedCode},
		{code: "PAPER-001", want: ErrMalformedCode},
		{code: "", want: ErrMalformedCode},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.code, func(t *testing.T) {
			it, err := c.Lookup(tc.code)
			if tc.want != nil {
				if !errors.Is(err, tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if it.Category != tc.cat {
				t.Fatalf("expected %s, got %s", tc.cat, it.Category)
			}
		})
	}
}

func TestParseRejectsBadCategory(t *testing.T) {
	_, err := Parse([]byte(`[{"code":"PAPER_002","category":"paper","name":"x"}]`))
	if err == nil {
		t.Fatalf("expected error for invalid category")
	}
}
