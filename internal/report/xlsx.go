package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"MacroLens/internal/model"
)

const (
	dataSheet    = "Data"
	summarySheet = "Summary"
)

var summaryHeader = []string{
	"country", "count", "first date", "last date", "first", "last",
	"min", "max", "mean", "median", "stddev", "cagr",
}

// WriteXLSX writes a workbook with the merged table on "Data" and the
// per-country summary on "Summary". Values are stored as numbers.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeData(f, r); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, r); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeData(f *excelize.File, r Report) error {
	m := r.Merged
	for i, h := range header(m) {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(dataSheet, cell, h); err != nil {
			return err
		}
	}
	for row, d := range m.Index {
		rowIdx := row + 2
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetCellValue(dataSheet, cell, d.Format(model.DateLayout)); err != nil {
			return err
		}
		for col, c := range m.Countries {
			v := m.Columns[c][row]
			if !v.Valid {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+2, rowIdx)
			if err := f.SetCellFloat(dataSheet, cell, v.Float64, -1, 64); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSummary(f *excelize.File, r Report) error {
	for i, h := range summaryHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(summarySheet, cell, h); err != nil {
			return err
		}
	}
	for row, s := range r.Summaries {
		values := []any{
			string(s.Country), s.Count, s.FirstDate, s.LastDate,
			s.First.Ptr(), s.Last.Ptr(), s.Min.Ptr(), s.Max.Ptr(),
			s.Mean.Ptr(), s.Median.Ptr(), s.StdDev.Ptr(), s.CAGR.Ptr(),
		}
		for col, v := range values {
			if p, ok := v.(*float64); ok {
				if p == nil {
					continue
				}
				v = *p
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
