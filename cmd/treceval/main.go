// Command treceval evaluates TREC run files against relevance
// judgments using an external scoring engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information, set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "treceval",
	Short: "Evaluate TREC run files against relevance judgments",
	Long: `treceval scores retrieval runs against qrels with a trec_eval
compatible scoring engine and aggregates the results across queries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("treceval %s (commit %s, built %s)\n", version, commit, date)
	},
}

func main() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(measuresCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(fuseCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
