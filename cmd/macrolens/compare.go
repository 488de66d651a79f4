package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"MacroLens/internal/compare"
	"MacroLens/internal/country"
	"MacroLens/internal/model"
	"MacroLens/internal/report"
	"MacroLens/internal/viz"
)

func newCompareCmd(cfgPath *string) *cobra.Command {
	var period, join, out string
	var width, height float64

	cmd := &cobra.Command{
		Use:   "compare [series] [countries...]",
		Short: "Merge one series across countries and export a report or chart",
		Long: `Merge one series across countries and export a report or chart.
The output format follows the --out extension: xlsx, csv, md, html, png or svg.
Without --out a markdown report is printed.

Example: macrolens compare gdp USA JPN DEU --period 20Y --out gdp.png`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseSeriesID(args[0])
			if err != nil {
				return err
			}
			countries, err := model.ParseCountries(args[1:]...)
			if err != nil {
				return err
			}
			policy, err := model.ParseJoinPolicy(join)
			if err != nil {
				return err
			}
			a, err := loadApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()
			p, err := a.defaultPeriod(period)
			if err != nil {
				return err
			}

			members := make([]*country.CountrySeries, len(countries))
			for i, c := range countries {
				members[i] = country.New(c, a.provider)
			}
			view := compare.New(members...).WithJoin(policy)
			if err := view.Load(cmd.Context(), p, id); err != nil {
				log.Printf("[WARN] %v", err)
			}

			if out == "" {
				rep, err := report.New(view, id, time.Now())
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(report.Markdown(rep))
				return err
			}
			return writeComparison(view, id, out, width, height)
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "Lookback such as 10Y, 6M, YTD or START:END (default from config)")
	cmd.Flags().StringVar(&join, "join", "outer", "Date join policy: outer or inner")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	cmd.Flags().Float64Var(&width, "width", 0, "Chart width in points")
	cmd.Flags().Float64Var(&height, "height", 0, "Chart height in points")
	return cmd
}

func writeComparison(view *compare.ComparativeView, id model.SeriesID, out string, width, height float64) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(out), "."))

	var write func(io.Writer) error
	if chart, err := viz.ParseFormat(ext); err == nil {
		fig, err := view.Visualize(id)
		if err != nil {
			return err
		}
		write = func(w io.Writer) error { return viz.Render(fig, w, chart, width, height) }
	} else {
		format, err := report.ParseFormat(ext)
		if err != nil {
			return fmt.Errorf("unsupported output %q: %w", out, err)
		}
		rep, err := report.New(view, id, time.Now())
		if err != nil {
			return err
		}
		write = func(w io.Writer) error { return report.Write(w, format, rep) }
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", out)
	return nil
}
