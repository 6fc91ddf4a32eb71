package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bantay-panahon/stormwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "stormwatch",
	Short: "Municipal class suspension decision engine",
	Long:  "Collects community hazard reports and city telemetry, scores suspension risk deterministically or via AI advisory, and ranks cities for class suspension decisions.",
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
