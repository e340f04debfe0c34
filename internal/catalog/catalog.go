// v0
// internal/catalog/catalog.go
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

//go:embed items.json
var itemsJSON []byte

var (
	// ErrUnknownItem is returned for well-formed codes that are not in the catalogue.
	ErrUnknownItem = errors.New("unknown item code")
	// ErrMalformedCode is returned for codes that do not look like an EcoSort label.
	ErrMalformedCode = errors.New("malformed item code")
)

var codePattern = regexp.MustCompile(`^[A-Z_]+_\d{3}$`)

var validPrefixes = map[string]bool{
	"PLASTIC": true,
	"FOOD":    true,
	"BATTERY": true,
	"PAINT":   true,
	"PAPER":   true,
	"GLASS":   true,
	"METAL":   true,
	"EWASTE":  true,
}

// Item is the reference entry for a printed QR label.
type Item struct {
	Code            string        `json:"code"`
	Category        scan.Category `json:"category"`
	Name            string        `json:"name"`
	Badge           string        `json:"badge"`
	TypicalWeightKg float64       `json:"typicalWeightKg"`
	Instructions    []string      `json:"instructions"`
	Impact          string        `json:"impact"`
}

// Catalog is the read-only item reference dataset.
type Catalog struct {
	items map[string]Item
	codes []string
}

// Load parses the embedded dataset.
func Load() (*Catalog, error) {
	return Parse(itemsJSON)
}

// Parse builds a catalogue from a JSON array of items.
func Parse(raw []byte) (*Catalog, error) {
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c := &Catalog{items: make(map[string]Item, len(items))}
	for _, it := range items {
		if !it.Category.Valid() {
			return nil, fmt.Errorf("catalog item %s: invalid category %q", it.Code, it.Category)
		}
		if err := ValidCode(it.Code); err != nil {
			return nil, fmt.Errorf("catalog item %s: %w", it.Code, err)
		}
		c.items[it.Code] = it
		c.codes = append(c.codes, it.Code)
	}
	sort.Strings(c.codes)
	return c, nil
}

// ValidCode checks the label format and its prefix.
func ValidCode(code string) error {
	if !codePattern.MatchString(code) {
		return fmt.Errorf("%w: %q", ErrMalformedCode, code)
	}
	prefix, _, _ := strings.Cut(code, "_")
	if !validPrefixes[prefix] {
		return fmt.Errorf("%w: unknown prefix %q", ErrMalformedCode, prefix)
	}
	return nil
}

// Lookup returns the item for code. Codes are matched case-insensitively.
func (c *Catalog) Lookup(code string) (Item, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := ValidCode(code); err != nil {
		return Item{}, err
	}
	it, ok := c.items[code]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrUnknownItem, code)
	}
	return it, nil
}

// Items returns every entry ordered by code.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, c.items[code])
	}
	return out
}
