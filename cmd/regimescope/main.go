package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/joho/godotenv"

	applog "github.com/sawpanic/regimescope/internal/log"
)

const (
	appName = "regimescope"
	version = "v0.1.0"
)

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = time.RFC3339

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Multi-timeframe regime detection and statistical context for crypto OHLCV series.",
		Version: version,
		Long: `regimescope classifies a symbol's market regime on one or more
timeframes (spec.md RegimeEngine), assembles the StatisticalContext report
across long/medium/short horizons, and cross-checks alignment between them.`,
	}

	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file (defaults built in if omitted)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		applog.Configure(level, true, os.Stderr)
	}

	rootCmd.AddCommand(newDetectCmd())
	rootCmd.AddCommand(newContextCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("regimescope exited with error")
	}
}
