package main

import (
	"github.com/spf13/cobra"

	"mplads/internal/version"
)

var (
	// dataRootFlag overrides where .mplads/ lives.
	dataRootFlag string
	// houseFlag and termFlag select the house/term scope for queries.
	houseFlag string
	termFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "mplads",
	Short: "MPLADS fund utilization aggregation engine",
	Long: `mplads reconciles MPLADS allocations, expenditures, and work records
into consistent per-MP, per-state, and per-constituency financial summaries,
gated by legislative house and term.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("mplads version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&dataRootFlag, "data-root", ".",
		"Directory containing .mplads/ (config and database)")
	rootCmd.PersistentFlags().StringVar(&houseFlag, "house", "",
		`House filter: "Lok Sabha", "Rajya Sabha", or empty for both`)
	rootCmd.PersistentFlags().StringVar(&termFlag, "ls-term", "",
		`Lok Sabha term selection: 17, 18, or both (default from config)`)
}
