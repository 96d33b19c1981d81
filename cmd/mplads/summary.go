package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Query aggregated fund utilization summaries",
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Nation-wide rollup for the selected house and term",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		sc := eng.facade.ResolveScope(houseFlag, termFlag)
		rec, err := eng.facade.GetOverview(sc)
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}

var mpCmd = &cobra.Command{
	Use:   "mp <mp-id>",
	Short: "Summary for a single MP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		sc := eng.facade.ResolveScope(houseFlag, termFlag)
		rec, err := eng.facade.GetMPSummary(sc, args[0])
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}

var stateCmd = &cobra.Command{
	Use:   "state <state>",
	Short: "Rollup across all MPs of a state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		sc := eng.facade.ResolveScope(houseFlag, termFlag)
		rec, err := eng.facade.GetStateSummary(sc, args[0])
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}

var constituencyCmd = &cobra.Command{
	Use:   "constituency <state> <constituency>",
	Short: "Per-MP summaries within a constituency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		sc := eng.facade.ResolveScope(houseFlag, termFlag)
		recs, err := eng.facade.GetConstituencySummary(sc, args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(recs)
	},
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

func init() {
	summaryCmd.AddCommand(overviewCmd)
	summaryCmd.AddCommand(mpCmd)
	summaryCmd.AddCommand(stateCmd)
	summaryCmd.AddCommand(constituencyCmd)
	rootCmd.AddCommand(summaryCmd)
}
