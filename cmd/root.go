package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deelab/costcalc/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "costcalc",
	Short: "Data annotation cost calculator backend",
	Long:  "Serves a configurable pricing calculator for data annotation services: catalog, cost engine, FAQ, settings, and quote-request capture.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
