// v0
// internal/export/export.go
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/analytics"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

// Format is the serialisation of an export document.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat maps a query value onto a Format. Empty input selects the spreadsheet.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

// Document is everything a user can take away from the dashboard.
type Document struct {
	ExportDate time.Time               `json:"exportDate"`
	UserID     string                  `json:"userId,omitempty"`
	WindowDays int                     `json:"windowDays"`
	Events     []scan.Event            `json:"events"`
	Series     []analytics.DailyBucket `json:"series"`
	Totals     analytics.Totals        `json:"totals"`
	Impact     analytics.Impact        `json:"impact"`
}

// Filename is the dated attachment name, e.g. ecosort-data-2024-05-10.json.
func Filename(exportDate time.Time, f Format) string {
	return fmt.Sprintf("ecosort-data-%s.%s", exportDate.UTC().Format(scan.DayLayout), f)
}

// Output is a rendered document.
type Output struct {
	Body   []byte
	Format Format
	// Fallback holds the spreadsheet error when JSON was produced instead.
	Fallback error
}

// renderSpreadsheet is swapped in tests to exercise the fallback.
var renderSpreadsheet = renderXLSX

// Render serialises doc as want. A spreadsheet that cannot be built falls
// back to JSON instead of failing the export.
func Render(doc Document, want Format) (Output, error) {
	var out Output
	if want == FormatXLSX {
		buf, err := renderSpreadsheet(doc)
		if err == nil {
			return Output{Body: buf.Bytes(), Format: FormatXLSX}, nil
		}
		out.Fallback = err
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, doc); err != nil {
		return Output{}, err
	}
	out.Body = buf.Bytes()
	out.Format = FormatJSON
	return out, nil
}

// WriteJSON writes the indented JSON rendition of doc.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}
