// v0
// internal/export/xlsx.go
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

const (
	sheetSummary = "Summary"
	sheetDaily   = "Daily"
	sheetEvents  = "Events"
)

func renderXLSX(doc Document) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetDaily, sheetEvents} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	if err := writeSummary(f, doc); err != nil {
		return nil, err
	}
	if err := writeDaily(f, doc); err != nil {
		return nil, err
	}
	if err := writeEvents(f, doc); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

func writeSummary(f *excelize.File, doc Document) error {
	rows := [][]interface{}{
		{"Export date", doc.ExportDate.UTC().Format(scan.DayLayout)},
		{"User", doc.UserID},
		{"Window (days)", doc.WindowDays},
		{},
		{"Category", "Count", "Weight (kg)"},
	}
	for _, c := range scan.Categories {
		t := doc.Totals.Of(c)
		rows = append(rows, []interface{}{string(c), t.Count, t.WeightKg})
	}
	rows = append(rows,
		[]interface{}{"Total", doc.Totals.Total, doc.Totals.TotalWeightKg},
		[]interface{}{},
		[]interface{}{"CO2 saved (kg)", doc.Impact.CO2SavedKg},
		[]interface{}{"Trees equivalent", doc.Impact.TreesEquivalent},
		[]interface{}{"Energy saved (kWh)", doc.Impact.EnergySavedKwh},
		[]interface{}{"Home days equivalent", doc.Impact.HomeDaysEquivalent},
		[]interface{}{"Water saved (L)", doc.Impact.WaterSavedLiters},
		[]interface{}{"Showers equivalent", doc.Impact.ShowersEquivalent},
		[]interface{}{"Landfill diverted (kg)", doc.Impact.LandfillDivertedKg},
		[]interface{}{"Garbage bags equivalent", doc.Impact.GarbageBagsEquivalent},
	)
	for i, r := range rows {
		if err := setRow(f, sheetSummary, i+1, r...); err != nil {
			return err
		}
	}
	return nil
}

func writeDaily(f *excelize.File, doc Document) error {
	header := []interface{}{"Date"}
	for _, c := range scan.Categories {
		header = append(header, string(c)+" count", string(c)+" kg")
	}
	header = append(header, "Total", "Total kg")
	if err := setRow(f, sheetDaily, 1, header...); err != nil {
		return err
	}
	for i, b := range doc.Series {
		row := []interface{}{b.Date}
		for _, c := range scan.Categories {
			t := b.Of(c)
			row = append(row, t.Count, t.WeightKg)
		}
		row = append(row, b.Total, b.TotalWeightKg)
		if err := setRow(f, sheetDaily, i+2, row...); err != nil {
			return err
		}
	}
	return nil
}

func writeEvents(f *excelize.File, doc Document) error {
	if err := setRow(f, sheetEvents, 1, "Timestamp", "QR code", "Item", "Category", "Weight", "Unit", "Id"); err != nil {
		return err
	}
	for i, e := range doc.Events {
		err := setRow(f, sheetEvents, i+2,
			e.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			e.QRCode,
			e.ItemName,
			string(e.Category),
			e.Weight,
			string(e.Unit),
			e.ID,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
