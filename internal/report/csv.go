package report

import (
	"encoding/csv"
	"io"

	"MacroLens/internal/model"
)

// WriteCSV writes the merged table with a date column and one column per
// country. Null cells are left empty.
func WriteCSV(w io.Writer, m model.MergedTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(m)); err != nil {
		return err
	}
	for _, row := range textRows(m) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
