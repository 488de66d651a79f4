package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"MacroLens/internal/api"
	"MacroLens/internal/notifier"
	"MacroLens/internal/recorder"
	"MacroLens/internal/scheduler"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	var runOnStart []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, scheduled report jobs and Telegram commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.Println("[INFO] MacroLens starting...")
			a, err := loadApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var n notifier.Notifier = notifier.LogNotifier{}
			var tn *notifier.TelegramNotifier
			if a.cfg.TelegramEnabled() {
				tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
				n = tn
			}

			sched := scheduler.NewScheduler(ctx, a.provider, n, a.cfg.Reports.OutputDir)
			sched.Prices = a.prices
			if a.cfg.History.Path != "" {
				rec, err := recorder.NewSQLiteRecorder(a.cfg.History.Path)
				if err != nil {
					log.Printf("[WARN] init sqlite recorder failed, run history disabled: %v", err)
				} else {
					defer rec.Close()
					sched.Recorder = rec
				}
			}
			if err := sched.RegisterAll(a.cfg.Reports.Jobs); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Println("[INFO] Telegram polling started")
			}

			if os.Getenv("RUN_ON_START") == "true" && len(runOnStart) == 0 {
				log.Println("[INFO] RUN_ON_START enabled, running every report job now")
				runOnStart = sched.Jobs()
			}
			for _, name := range runOnStart {
				go func(name string) {
					if _, err := sched.RunNow(ctx, name); err != nil {
						log.Printf("[ERROR] run %s on start: %v", name, err)
					}
				}(name)
			}

			server := api.NewServer(a.provider, a.prices)
			err = server.ListenAndServe(ctx, a.cfg.Server.ListenAddr)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			log.Println("[INFO] MacroLens stopped")
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&runOnStart, "run", nil, "Report jobs to run immediately (RUN_ON_START=true runs all)")
	return cmd
}
