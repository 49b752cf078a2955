package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/terrierteam/treceval/trec"
	"github.com/terrierteam/treceval/trec/fusion"
)

var fuseFlags struct {
	output  string
	name    string
	k       int
	weights []float64
}

var fuseCmd = &cobra.Command{
	Use:   "fuse [flags] RUN_FILE...",
	Short: "Combine runs with reciprocal rank fusion",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runFuse,
}

func init() {
	f := fuseCmd.Flags()
	f.StringVarP(&fuseFlags.output, "output", "o", "", "output file (default stdout)")
	f.StringVar(&fuseFlags.name, "name", "fused", "run name written to the output")
	f.IntVar(&fuseFlags.k, "k", fusion.DefaultK, "RRF smoothing constant")
	f.Float64SliceVar(&fuseFlags.weights, "weight", nil, "per-run weight, repeatable (default equal weights)")
}

func runFuse(cmd *cobra.Command, args []string) error {
	if len(fuseFlags.weights) > 0 && len(fuseFlags.weights) != len(args) {
		return fmt.Errorf("got %d weights for %d runs", len(fuseFlags.weights), len(args))
	}

	runs := make([]trec.Run, 0, len(args))
	for _, path := range args {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening run: %w", err)
		}
		run, err := trec.ParseRun(file)
		file.Close()
		if err != nil {
			return fmt.Errorf("parsing run %s: %w", path, err)
		}
		runs = append(runs, run)
	}

	fused := fusion.Fuse(runs, fusion.Config{
		K:       fuseFlags.k,
		Weights: fuseFlags.weights,
	})

	var out io.Writer = cmd.OutOrStdout()
	if fuseFlags.output != "" {
		file, err := os.Create(fuseFlags.output)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer file.Close()
		out = file
	}

	return trec.WriteRun(out, fused, fuseFlags.name)
}
