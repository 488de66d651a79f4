package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"MacroLens/internal/recorder"
)

func newHistoryCmd(cfgPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [job]",
		Short: "List recent report job runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.cfg.History.Path == "" {
				return fmt.Errorf("history.path is not configured")
			}
			rec, err := recorder.NewSQLiteRecorder(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer rec.Close()

			job := ""
			if len(args) == 1 {
				job = args[0]
			}
			runs, err := rec.RecentRuns(cmd.Context(), job, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tJOB\tSTATUS\tSERIES\tFILES\tERRORS\tDURATION")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					r.StartedAt().Format("2006-01-02 15:04:05"), r.Job, r.Status, r.Series, r.Files, r.Errors, r.Duration())
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}
