package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"MacroLens/internal/country"
	"MacroLens/internal/model"
)

func newMacrosCmd(cfgPath *string) *cobra.Command {
	var series, period string

	cmd := &cobra.Command{
		Use:   "macros [country]",
		Short: "Fetch macro series for one country and print them as JSON",
		Long: `Fetch macro series for one country and print them as JSON.

Example: macrolens macros USA --series gdp,inflation --period 15Y`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := model.ParseCountry(args[0])
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

			names := splitList(series)
			if len(names) == 0 {
				return fmt.Errorf("--series names no series")
			}
			cs := country.New(c, a.provider)
			table, fetchErr := cs.GetMacrosByName(cmd.Context(), p, names...)
			if fetchErr != nil {
				log.Printf("[WARN] %v", fetchErr)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(table); err != nil {
				return err
			}
			if len(table) == 0 && fetchErr != nil {
				return fmt.Errorf("no series fetched for %s", c)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&series, "series", "GDP,GDP_GROWTH,INFLATION,UNEMPLOYMENT", "Comma separated series identifiers")
	cmd.Flags().StringVar(&period, "period", "", "Lookback such as 10Y, 6M, YTD or START:END (default from config)")
	return cmd
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
