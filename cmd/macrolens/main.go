package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var cfgPath string
	rootCmd := &cobra.Command{
		Use:          "macrolens",
		Short:        "Fetch, compare and chart macroeconomic series across countries",
		SilenceUsage: true,
	}
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultPath, "Path to the YAML config file")

	rootCmd.AddCommand(
		newMacrosCmd(&cfgPath),
		newCompareCmd(&cfgPath),
		newStockCmd(&cfgPath),
		newServeCmd(&cfgPath),
		newCacheCmd(&cfgPath),
		newHistoryCmd(&cfgPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
