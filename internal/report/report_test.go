package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"MacroLens/internal/collector"
	"MacroLens/internal/compare"
	"MacroLens/internal/country"
	"MacroLens/internal/model"
)

func sampleReport(t *testing.T) Report {
	t.Helper()
	mock := collector.NewMockProvider().
		Set("USA", model.SeriesGDP, model.NewTimeSeries([]model.Point{
			{Date: model.MustDate("2020-01-01"), Value: 1},
			{Date: model.MustDate("2020-01-02"), Value: 2.5},
		})).
		Set("JPN", model.SeriesGDP, model.NewTimeSeries([]model.Point{
			{Date: model.MustDate("2020-01-01"), Value: 3},
		}))
	view := compare.New(country.New("USA", mock), country.New("JPN", mock))
	require.NoError(t, view.Load(context.Background(), model.Years(1), model.SeriesGDP))

	r, err := New(view, model.SeriesGDP, time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC))
	require.NoError(t, err)
	return r
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport(t).Merged))
	want := "date,USA,JPN\n2020-01-01,1,3\n2020-01-02,2.5,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{dataSheet, summarySheet}, f.GetSheetList())
	cell := func(sheet, axis string) string {
		v, err := f.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "date", cell(dataSheet, "A1"))
	assert.Equal(t, "JPN", cell(dataSheet, "C1"))
	assert.Equal(t, "2020-01-02", cell(dataSheet, "A3"))
	assert.Equal(t, "2.5", cell(dataSheet, "B3"))
	assert.Equal(t, "", cell(dataSheet, "C3"))
	assert.Equal(t, "USA", cell(summarySheet, "A2"))
	assert.Equal(t, "2", cell(summarySheet, "B2"))
}

func TestMarkdownAndHTML(t *testing.T) {
	r := sampleReport(t)
	md := string(Markdown(r))
	assert.True(t, strings.HasPrefix(md, "# GDP"))
	assert.Contains(t, md, "| date | USA | JPN |")
	assert.Contains(t, md, "| 2020-01-02 | 2.5 |  |")
	assert.Contains(t, md, "## Summary")

	page := string(HTML(r))
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<title>"+r.Title+"</title>")
}

func TestMarkdown_EmptyTable(t *testing.T) {
	md := string(Markdown(Report{Title: "Nothing", Merged: model.MergedTable{Series: model.SeriesGDP}}))
	assert.Contains(t, md, "No country holds this series.")
}

func TestParseFormatAndWrite(t *testing.T) {
	f, err := ParseFormat(".HTML")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleReport(t)))
	assert.True(t, strings.HasPrefix(buf.String(), "date,"))
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
}
