package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders the report as a GitHub-style markdown document.
func Markdown(r Report) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	if !r.Generated.IsZero() {
		fmt.Fprintf(&b, "Generated %s.\n\n", r.Generated.UTC().Format("2006-01-02 15:04 MST"))
	}

	m := r.Merged
	if m.Empty() {
		b.WriteString("No country holds this series.\n")
		return b.Bytes()
	}
	fmt.Fprintf(&b, "Series `%s` (%s), %s join over %d dates.\n\n", m.Series, m.Series.Unit(), m.Join, len(m.Index))
	writeTable(&b, header(m), textRows(m))

	if len(r.Summaries) > 0 {
		b.WriteString("\n## Summary\n\n")
		rows := make([][]string, len(r.Summaries))
		for i, s := range r.Summaries {
			rows[i] = []string{
				string(s.Country), fmt.Sprint(s.Count),
				nullText(s.Min.Ptr()), nullText(s.Max.Ptr()), nullText(s.Mean.Ptr()),
				nullText(s.Last.Ptr()), percentText(s.CAGR.Ptr()),
			}
		}
		writeTable(&b, []string{"country", "count", "min", "max", "mean", "last", "cagr"}, rows)
	}
	return b.Bytes()
}

// HTML renders the markdown report as a standalone page.
func HTML(r Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: r.Title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(Markdown(r), p, renderer)
}

func writeTable(b *bytes.Buffer, head []string, rows [][]string) {
	b.WriteString("| " + strings.Join(head, " | ") + " |\n")
	sep := make([]string, len(head))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
}

func nullText(p *float64) string {
	if p == nil {
		return ""
	}
	return formatValue(*p)
}

func percentText(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%.2f%%", *p*100)
}

