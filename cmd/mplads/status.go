package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mplads/internal/version"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine status and cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		stats := eng.cache.GetStats()

		fmt.Printf("mplads %s\n", version.Info())
		fmt.Printf("database:     %s\n", filepath.Join(dataRootFlag, ".mplads", "mplads.db"))
		fmt.Printf("default term: %s\n", eng.cfg.Query.DefaultTerm)
		fmt.Println()
		fmt.Printf("cache entries:    %d / %d\n", stats.Entries, eng.cfg.Cache.MaxEntries)
		fmt.Printf("compressed bytes: %d\n", stats.CompressedSize)
		fmt.Printf("hits / misses:    %d / %d\n", stats.Hits, stats.Misses)
		fmt.Printf("evictions:        %d\n", stats.Evictions)
		fmt.Printf("degraded writes:  %d\n", stats.Degraded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
