package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"MacroLens/internal/compare"
	"MacroLens/internal/model"
)

// Format names a report output format.
type Format string

const (
	FormatXLSX     Format = "xlsx"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")); f {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}

// Report bundles a merged series with its per-country summary.
type Report struct {
	Title     string
	Generated time.Time
	Merged    model.MergedTable
	Summaries []compare.Summary
}

// New builds a report of id from view.
func New(view *compare.ComparativeView, id model.SeriesID, now time.Time) (Report, error) {
	merged, err := view.GetMergedMacro(id)
	if err != nil {
		return Report{}, err
	}
	sums, err := view.Summarize(id)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Title:     fmt.Sprintf("%s by country", id.Label()),
		Generated: now,
		Merged:    merged,
		Summaries: sums,
	}, nil
}

// Write renders r in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatCSV:
		return WriteCSV(w, r.Merged)
	case FormatMarkdown:
		_, err := w.Write(Markdown(r))
		return err
	case FormatHTML:
		_, err := w.Write(HTML(r))
		return err
	default:
		return fmt.Errorf("unsupported report format %q", f)
	}
}

// header returns "date" followed by one column per country.
func header(m model.MergedTable) []string {
	out := make([]string, 0, len(m.Countries)+1)
	out = append(out, "date")
	for _, c := range m.Countries {
		out = append(out, string(c))
	}
	return out
}

// textRows formats every cell; null cells are empty strings.
func textRows(m model.MergedTable) [][]string {
	rows := make([][]string, len(m.Index))
	for i, d := range m.Index {
		row := make([]string, 0, len(m.Countries)+1)
		row = append(row, d.Format(model.DateLayout))
		for _, c := range m.Countries {
			cell := m.Columns[c][i]
			if !cell.Valid {
				row = append(row, "")
				continue
			}
			row = append(row, formatValue(cell.Float64))
		}
		rows[i] = row
	}
	return rows
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
