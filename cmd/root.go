package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammed-seid/hfc-south-plant/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "hfc-south",
	Short: "ET South HFC data correction ledger",
	Long:  "Tracks flagged data-quality errors from the high-frequency checks, collects enumerator corrections, and appends them to the shared correction ledger with compare-and-swap writes.",
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
