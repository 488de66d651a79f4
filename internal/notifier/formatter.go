package notifier

import (
	"errors"
	"fmt"
	"html"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"MacroLens/internal/compare"
	"MacroLens/internal/model"
	"MacroLens/internal/recorder"
	"MacroLens/internal/stock"
)

// RunResult describes one report job run for the summary message.
type RunResult struct {
	Job       string
	RunID     string
	Started   time.Time
	Countries []model.Country
	Summaries map[model.SeriesID][]compare.Summary
	Files     []string
	Err       error
}

// FormatRunSummary formats a finished report job into a Telegram message.
func FormatRunSummary(r RunResult) string {
	var b strings.Builder

	status := "✅"
	if r.Err != nil {
		status = "⚠️"
	}
	b.WriteString(fmt.Sprintf("%s <b>MacroLens report</b> %s | %s\n",
		status, html.EscapeString(r.Job), r.Started.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("run %s · %s\n", shortID(r.RunID), joinCountries(r.Countries)))

	for _, id := range sortedSeries(r.Summaries) {
		b.WriteString(fmt.Sprintf("\n📈 <b>%s</b> (%s)\n", html.EscapeString(id.Label()), html.EscapeString(id.Unit())))
		for _, s := range r.Summaries[id] {
			b.WriteString("  " + formatSummaryLine(s) + "\n")
		}
	}

	if len(r.Files) > 0 {
		names := make([]string, len(r.Files))
		for i, f := range r.Files {
			names[i] = filepath.Base(f)
		}
		b.WriteString(fmt.Sprintf("\n📁 %s\n", html.EscapeString(strings.Join(names, ", "))))
	}
	if r.Err != nil {
		b.WriteString("\n<b>Errors:</b>\n")
		for _, line := range errorLines(r.Err) {
			b.WriteString("  • " + html.EscapeString(line) + "\n")
		}
	}
	return b.String()
}

// FormatComparison formats per-country summaries of one series.
func FormatComparison(id model.SeriesID, sums []compare.Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> (%s)\n", html.EscapeString(id.Label()), html.EscapeString(id.Unit())))
	if len(sums) == 0 {
		b.WriteString("no country returned data")
		return b.String()
	}
	for _, s := range sums {
		b.WriteString(formatSummaryLine(s) + "\n")
	}
	return b.String()
}

// FormatSnapshot formats a stock snapshot.
func FormatSnapshot(s stock.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💹 <b>%s</b> [%s - %s]\n", html.EscapeString(s.Symbol), s.Start, s.End))
	b.WriteString(fmt.Sprintf("last close: %.2f (%+.1f%% over period)\n", s.LastClose, s.TotalReturn*100))
	b.WriteString(fmt.Sprintf("52w range: %.2f - %.2f (position %.0f%%)\n", s.Low52w, s.High52w, s.Position52w*100))
	b.WriteString(fmt.Sprintf("RSI(14): %.0f\n", s.RSI))
	return b.String()
}

// FormatJobs lists the configured report jobs.
func FormatJobs(jobs []string) string {
	if len(jobs) == 0 {
		return "no report jobs configured"
	}
	var b strings.Builder
	b.WriteString("🗓 <b>Report jobs</b>\n")
	for _, j := range jobs {
		b.WriteString("• " + html.EscapeString(j) + "\n")
	}
	return b.String()
}

// FormatHistory lists recent report runs, newest first.
func FormatHistory(runs []recorder.Run) string {
	if len(runs) == 0 {
		return "no recorded runs"
	}
	var b strings.Builder
	b.WriteString("🕘 <b>Recent runs</b>\n")
	for _, r := range runs {
		icon := "✅"
		switch r.Status {
		case recorder.StatusPartial:
			icon = "⚠️"
		case recorder.StatusFailed:
			icon = "❌"
		}
		b.WriteString(fmt.Sprintf("%s %s %s · %s · %d files",
			icon, r.StartedAt().Format("01-02 15:04"), html.EscapeString(r.Job), html.EscapeString(r.Series), r.Files))
		if r.Errors > 0 {
			b.WriteString(fmt.Sprintf(" · %d errors", r.Errors))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Commands:\n" +
		"• /jobs\n" +
		"• /run &lt;job&gt;\n" +
		"• /history [job]\n" +
		"• /compare &lt;series&gt; &lt;c1,c2,...&gt; [period]\n" +
		"• /stock &lt;symbol&gt; [period]"
}

func formatSummaryLine(s compare.Summary) string {
	if s.Count == 0 {
		return fmt.Sprintf("%s: no observations", s.Country)
	}
	line := fmt.Sprintf("%s: %s (%s)", s.Country, compact(s.Last.Float64), s.LastDate)
	if s.CAGR.Valid {
		line += fmt.Sprintf(", CAGR %+.2f%%", s.CAGR.Float64*100)
	}
	return line
}

// compact prints large magnitudes with K/M/B/T suffixes.
func compact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case abs >= 1e4:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func joinCountries(cs []model.Country) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func sortedSeries(m map[model.SeriesID][]compare.Summary) []model.SeriesID {
	ids := make([]model.SeriesID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// errorLines flattens joined errors into one line each.
func errorLines(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, errorLines(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
