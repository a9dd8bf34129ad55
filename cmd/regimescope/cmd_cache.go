package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the CacheManager's stored OHLCV segments",
	}
	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print cache hit/miss/eviction counters and per-key segment stats",
		RunE:  runCacheStats,
	}
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	application, err := newApp(configPath)
	if err != nil {
		return err
	}

	stats, err := application.cacheMgr.GetStats(context.Background())
	if err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear every cached segment, or one segment when both --symbol and --timeframe are given",
		RunE:  runCacheClear,
	}
	cmd.Flags().String("symbol", "", "symbol of the one segment to clear (needs --timeframe; otherwise all segments are cleared)")
	cmd.Flags().String("timeframe", "", "timeframe code of the one segment to clear (needs --symbol; otherwise all segments are cleared)")
	return cmd
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	symbol, _ := cmd.Flags().GetString("symbol")
	tf, _ := cmd.Flags().GetString("timeframe")

	application, err := newApp(configPath)
	if err != nil {
		return err
	}

	var symbolPtr, tfPtr *string
	if symbol != "" {
		symbolPtr = &symbol
	}
	if tf != "" {
		tfPtr = &tf
	}

	if err := application.cacheMgr.Clear(context.Background(), symbolPtr, tfPtr); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	fmt.Fprintln(os.Stdout, "cache cleared")
	return nil
}
