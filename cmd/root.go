package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ar-rehman786/Axis-trade-market/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "axis",
	Short: "Property data ingestion and market scoring pipeline",
	Long:  "Ingests property and loan tabular feeds, scores equity position per record, routes records into outreach feeds, and aggregates market intel per city and ZIP.",
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
