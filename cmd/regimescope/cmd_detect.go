package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/regimescope/internal/provider"
	"github.com/sawpanic/regimescope/internal/regime"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect SYMBOL",
		Short: "Run RegimeEngine.Detect for a single symbol/timeframe",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetect,
	}
	cmd.Flags().String("timeframe", "1h", "timeframe code, e.g. 5m, 1h, 1d")
	cmd.Flags().Int("bars", 250, "number of bars to analyze")
	cmd.Flags().String("reference-date", "", "epoch-ms or RFC3339 reference date (defaults to now)")
	return cmd
}

func runDetect(cmd *cobra.Command, args []string) error {
	symbol := args[0]
	tfFlag, _ := cmd.Flags().GetString("timeframe")
	bars, _ := cmd.Flags().GetInt("bars")
	refDateFlag, _ := cmd.Flags().GetString("reference-date")
	configPath, _ := cmd.Flags().GetString("config")

	application, err := newApp(configPath)
	if err != nil {
		return err
	}

	var referenceDate *int64
	if refDateFlag != "" {
		ms, err := provider.ParseReferenceDate(refDateFlag)
		if err != nil {
			return err
		}
		referenceDate = &ms
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	start := time.Now()
	result, err := application.regime.Detect(ctx, regime.Input{
		Symbol: symbol, Timeframe: timeframe.Code(tfFlag), Count: bars, ReferenceDate: referenceDate,
	})
	application.metrics.RecordRegimeDetection(string(result.Regime), time.Since(start))
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
