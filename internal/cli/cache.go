package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			runtimeFailure(cmd, err)
			return nil
		}
		cfg.Cache.Enabled = true
		store, err := openStore(cfg)
		if err != nil {
			runtimeFailure(cmd, fmt.Errorf("opening cache: %w", err))
			return nil
		}
		defer store.Close()
		if err := store.Clear(context.Background()); err != nil {
			runtimeFailure(cmd, fmt.Errorf("clearing cache: %w", err))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			runtimeFailure(cmd, err)
			return nil
		}
		cfg.Cache.Enabled = true
		store, err := openStore(cfg)
		if err != nil {
			runtimeFailure(cmd, fmt.Errorf("opening cache: %w", err))
			return nil
		}
		defer store.Close()
		n, err := store.Purge(context.Background())
		if err != nil {
			runtimeFailure(cmd, fmt.Errorf("purging cache: %w", err))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired entries.\n", n)
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			runtimeFailure(cmd, err)
			return nil
		}
		if !cfg.Cache.Enabled {
			fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled.")
			return nil
		}
		store, err := openStore(cfg)
		if err != nil {
			runtimeFailure(cmd, fmt.Errorf("opening cache: %w", err))
			return nil
		}
		defer store.Close()
		stats, err := store.Stats(context.Background())
		if err != nil {
			runtimeFailure(cmd, fmt.Errorf("reading cache stats: %w", err))
			return nil
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			runtimeFailure(cmd, err)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
