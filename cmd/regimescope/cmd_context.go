package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sawpanic/regimescope/internal/alignment"
	"github.com/sawpanic/regimescope/internal/log"
	"github.com/sawpanic/regimescope/internal/narrative"
	"github.com/sawpanic/regimescope/internal/statcontext"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context SYMBOL",
		Short: "Build the StatisticalContext report across long/medium/short timeframes",
		Args:  cobra.ExactArgs(1),
		RunE:  runContext,
	}
	cmd.Flags().String("long", "1d", "long-horizon timeframe code")
	cmd.Flags().String("medium", "4h", "medium-horizon timeframe code")
	cmd.Flags().String("short", "1h", "short-horizon timeframe code")
	cmd.Flags().Bool("narrative", false, "project a compact narrative report instead of the raw context")
	return cmd
}

func runContext(cmd *cobra.Command, args []string) error {
	symbol := args[0]
	longTF, _ := cmd.Flags().GetString("long")
	mediumTF, _ := cmd.Flags().GetString("medium")
	shortTF, _ := cmd.Flags().GetString("short")
	wantNarrative, _ := cmd.Flags().GetBool("narrative")
	configPath, _ := cmd.Flags().GetString("config")

	application, err := newApp(configPath)
	if err != nil {
		return err
	}

	req := statcontext.Request{
		statcontext.SlotLong:   timeframe.Code(longTF),
		statcontext.SlotMedium: timeframe.Code(mediumTF),
		statcontext.SlotShort:  timeframe.Code(shortTF),
	}

	progress := log.NewProgressIndicator(fmt.Sprintf("context:%s", symbol), len(req), log.ProgressConfig{ShowSpinner: true})
	defer progress.Finish()

	ctx := context.Background()
	full, err := application.statctx.Build(ctx, symbol, req, nil)
	application.metrics.RecordContextBuild()
	if err != nil {
		return fmt.Errorf("building statistical context: %w", err)
	}
	progress.Update(len(req))

	if !wantNarrative {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(full)
	}

	signals := make([]alignment.Signal, 0, len(full.Contexts))
	for _, tc := range full.Contexts {
		if tc.Regime == nil {
			continue
		}
		signals = append(signals, alignment.SignalFromRegime(tc.Timeframe, *tc.Regime))
	}
	report := alignment.Aggregate(signals)
	application.metrics.SetAlignmentScore(report.AlignmentScore)

	out := narrative.Project(full, report)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
