package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"MacroLens/internal/model"
	"MacroLens/internal/stock"
	"MacroLens/internal/viz"
)

func newStockCmd(cfgPath *string) *cobra.Command {
	var period, benchmark, chart, out string
	var investment, riskFree float64

	cmd := &cobra.Command{
		Use:   "stock [symbol]",
		Short: "Analyze one ticker: returns, beta/alpha, indicators and charts",
		Long: `Analyze one ticker: returns, beta/alpha, indicators and charts.
Charts: price, ohlc, volume, ma, ema, macd, rsi, bollinger, sar, pl.

Example: macrolens stock AAPL --period 5Y --benchmark ^GSPC --chart macd --out aapl-macd.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()
			p, err := model.ParsePeriod(period)
			if err != nil {
				return err
			}
			t, err := stock.NewTicker(cmd.Context(), a.prices, args[0], p)
			if err != nil {
				return err
			}

			snap, err := t.Snapshot()
			if err != nil {
				return err
			}
			result := map[string]any{"snapshot": snap}
			if sym := stock.BenchmarkSymbol(benchmark); sym != "" {
				bench, err := stock.NewTicker(cmd.Context(), a.prices, sym, p)
				if err != nil {
					return fmt.Errorf("benchmark: %w", err)
				}
				beta, err := t.Beta(bench)
				if err != nil {
					return err
				}
				alpha, err := t.Alpha(bench, riskFree)
				if err != nil {
					return err
				}
				result["benchmark"], result["beta"], result["alpha"] = bench.String(), beta, alpha
			}
			if investment > 0 {
				pl, err := t.ProfitLoss(investment)
				if err != nil {
					return err
				}
				result["profitLoss"] = pl
			}

			fmt.Fprintln(os.Stderr, t.String())
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}

			if out == "" {
				return nil
			}
			format, err := viz.ParseFormat(strings.TrimPrefix(filepath.Ext(out), "."))
			if err != nil {
				return err
			}
			fig, err := t.Figure(chart, investment)
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := viz.Render(fig, f, format, 0, 0); err != nil {
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVar(&period, "period", model.DefaultPeriod, "Lookback such as 10Y, 6M, YTD or START:END")
	cmd.Flags().StringVar(&benchmark, "benchmark", stock.DefaultBenchmark, `Benchmark symbol for beta and alpha, or "none"`)
	cmd.Flags().Float64Var(&riskFree, "risk-free", stock.DefaultRiskFree, "Risk-free rate for alpha")
	cmd.Flags().Float64Var(&investment, "investment", 0, "Amount invested at the first close for profit/loss")
	cmd.Flags().StringVar(&chart, "chart", "price", "Chart to draw with --out")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Chart output file (.png or .svg)")
	return cmd
}
