package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orebase/mining-intel/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "mining-intel",
	Short: "Mining project financial data extraction pipeline",
	Long:  "Fetches technical reports and filings, extracts project economics (NPV, IRR, capex) via Claude, merges multi-document records, and serves the canonical data.",
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
