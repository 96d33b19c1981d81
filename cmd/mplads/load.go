package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mplads/internal/loader"
)

var registryFlag string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load snapshot files listed in the source registry",
	Long: `load reads the TOML source registry and imports each snapshot into
the local database. Allocation sets replace prior rows for the same house
and term; other sets are appended.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		registry := registryFlag
		if registry == "" {
			registry = filepath.Join(dataRootFlag, eng.cfg.Loader.SourcesPath)
		}

		report, err := loader.New(eng.stores, eng.logger).Run(registry)
		if err != nil {
			return err
		}

		for set, n := range report.LoadedBySet {
			fmt.Printf("%-20s %d rows\n", set, n)
		}
		eng.cache.InvalidateAll()
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&registryFlag, "registry", "",
		"Path to the source registry (default: loader.sourcesPath under the data root)")
	rootCmd.AddCommand(loadCmd)
}
