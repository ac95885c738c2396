package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprintlens/sprintlens/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the analysis cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cache entries",
	RunE:  runCacheClear,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <sprint-id>",
	Short: "Remove cache entries for one sprint",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheInvalidate,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openFileCache() (*cache.File, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dir := cfg.Cache.Dir
	if cacheDir != "" {
		dir = cacheDir
	}
	return cache.NewFile(dir)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, err := openFileCache()
	if err != nil {
		return err
	}

	stats, err := store.GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("Entries: %d\n", stats.Entries)
	fmt.Printf("Size:    %d bytes\n", stats.TotalSize)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, err := openFileCache()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println("Cache cleared.")
	return nil
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, _, err := newService(cfg)
	if err != nil {
		return err
	}
	if err := svc.Invalidate(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Invalidated cache for sprint %s.\n", args[0])
	return nil
}
