// v0
// internal/export/export_test.go
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/analytics"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

func sampleDocument(t *testing.T) Document {
	t.Helper()
	ref := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	events := []scan.Event{
		{ID: "a", QRCode: "PAPER_001", ItemName: "Paper", Category: scan.CategoryDry, Weight: 2, Unit: scan.UnitKilogram, Timestamp: ref},
		{ID: "b", QRCode: "FOOD_WASTE_001", ItemName: "Food", Category: scan.CategoryWet, Weight: 500, Unit: scan.UnitGram, Timestamp: ref.AddDate(0, 0, -1)},
	}
	series, err := analytics.Aggregate(events, 3, ref)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	totals := analytics.TotalsOf(series.Buckets)
	return Document{
		ExportDate: ref,
		UserID:     "alice",
		WindowDays: 3,
		Events:     events,
		Series:     series.Buckets,
		Totals:     totals,
		Impact:     analytics.ImpactOf(totals),
	}
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 5, 10, 23, 0, 0, 0, time.FixedZone("X", -3*3600))
	if got := Filename(ts, FormatJSON); got != "ecosort-data-2024-05-11.json" {
		t.Fatalf("unexpected filename %s", got)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatXLSX {
		t.Fatalf("expected xlsx default")
	}
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Fatalf("expected json")
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatalf("expected csv to be rejected")
	}
}

func TestRenderSpreadsheet(t *testing.T) {
	doc := sampleDocument(t)
	out, err := Render(doc, FormatXLSX)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Format != FormatXLSX || out.Fallback != nil {
		t.Fatalf("expected spreadsheet output, got %s (%v)", out.Format, out.Fallback)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(out.Body))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) != 3 || sheets[0] != sheetSummary {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := wb.GetRows(sheetDaily)
	if err != nil {
		t.Fatalf("daily rows: %v", err)
	}
	if len(rows) != 4 || rows[3][0] != "2024-05-10" {
		t.Fatalf("expected header plus 3 days, got %v", rows)
	}
	events, err := wb.GetRows(sheetEvents)
	if err != nil {
		t.Fatalf("event rows: %v", err)
	}
	if len(events) != 3 || events[1][1] != "PAPER_001" {
		t.Fatalf("unexpected events sheet %v", events)
	}
}

func TestRenderFallsBackToJSON(t *testing.T) {
	prev := renderSpreadsheet
	renderSpreadsheet = func(Document) (*bytes.Buffer, error) { return nil, errors.New("disk full") }
	t.Cleanup(func() { renderSpreadsheet = prev })

	doc := sampleDocument(t)
	out, err := Render(doc, FormatXLSX)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Format != FormatJSON || out.Fallback == nil {
		t.Fatalf("expected JSON fallback, got %s", out.Format)
	}

	var decoded Document
	if err := json.Unmarshal(out.Body, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.WindowDays != 3 || len(decoded.Events) != 2 || len(decoded.Series) != 3 {
		t.Fatalf("unexpected decoded document: %+v", decoded)
	}
	if decoded.Totals.Total != 2 {
		t.Fatalf("expected totals to survive, got %+v", decoded.Totals)
	}
}
