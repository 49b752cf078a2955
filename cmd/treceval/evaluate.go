package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/terrierteam/treceval/eval"
	"github.com/terrierteam/treceval/eval/trecexec"
	"github.com/terrierteam/treceval/measure"
	"github.com/terrierteam/treceval/trec"
)

var evaluateFlags struct {
	qrelsPath      string
	measures       []string
	relevanceLevel int
	judgedDocsOnly bool
	perQuery       bool
	format         string
	engineBinary   string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [flags] RUN_FILE...",
	Short: "Evaluate one or more run files against a qrels file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVarP(&evaluateFlags.qrelsPath, "qrels", "q", "", "path to the qrels file (required)")
	f.StringArrayVarP(&evaluateFlags.measures, "measure", "m", []string{"official"}, "measure or nickname, repeatable")
	f.IntVarP(&evaluateFlags.relevanceLevel, "level", "l", 1, "minimum relevance level counted as relevant")
	f.BoolVarP(&evaluateFlags.judgedDocsOnly, "judged-docs-only", "J", false, "only score judged documents")
	f.BoolVar(&evaluateFlags.perQuery, "per-query", false, "also print per-query scores")
	f.StringVar(&evaluateFlags.format, "format", "text", "output format: text or json")
	f.StringVar(&evaluateFlags.engineBinary, "engine-binary", trecexec.DefaultBinary, "path to the scoring engine executable")
	_ = evaluateCmd.MarkFlagRequired("qrels")
}

// runResult holds the evaluation output for a single run file.
type runResult struct {
	Path       string                        `json:"path"`
	QueryCount int                           `json:"query_count"`
	Aggregated map[string]float64            `json:"aggregated"`
	PerQuery   map[string]map[string]float64 `json:"per_query,omitempty"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if evaluateFlags.format != "text" && evaluateFlags.format != "json" {
		return fmt.Errorf("invalid format %q (must be text or json)", evaluateFlags.format)
	}

	qrelsFile, err := os.Open(evaluateFlags.qrelsPath)
	if err != nil {
		return fmt.Errorf("opening qrels: %w", err)
	}
	qrels, err := trec.ParseQrel(qrelsFile)
	qrelsFile.Close()
	if err != nil {
		return fmt.Errorf("parsing qrels %s: %w", evaluateFlags.qrelsPath, err)
	}

	opts := []eval.Option{
		eval.WithEngine(trecexec.Factory(evaluateFlags.engineBinary)),
		eval.WithRelevanceLevel(evaluateFlags.relevanceLevel),
	}
	if evaluateFlags.judgedDocsOnly {
		opts = append(opts, eval.WithJudgedDocsOnly())
	}

	evaluator, err := eval.New(qrels, evaluateFlags.measures, opts...)
	if err != nil {
		return err
	}

	// Score the run files concurrently; the engine runs as a separate
	// process per call anyway.
	results := make([]runResult, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, path := range args {
		g.Go(func() error {
			runFile, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening run: %w", err)
			}
			run, err := trec.ParseRun(runFile)
			runFile.Close()
			if err != nil {
				return fmt.Errorf("parsing run %s: %w", path, err)
			}

			perQuery, err := evaluator.Evaluate(ctx, run)
			if err != nil {
				return fmt.Errorf("evaluating %s: %w", path, err)
			}

			results[i] = runResult{
				Path:       path,
				QueryCount: len(perQuery),
				Aggregated: aggregate(perQuery),
			}
			if evaluateFlags.perQuery {
				results[i].PerQuery = perQuery
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if evaluateFlags.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, res := range results {
		printResult(cmd, res, len(results) > 1)
	}
	return nil
}

// aggregate combines per-query scores into one value per measure.
func aggregate(results eval.Results) map[string]float64 {
	perMeasure := make(map[string][]float64)
	for _, scores := range results {
		for name, value := range scores {
			perMeasure[name] = append(perMeasure[name], value)
		}
	}

	aggregated := make(map[string]float64, len(perMeasure))
	for name, values := range perMeasure {
		aggregated[name] = measure.Aggregate(name, values)
	}
	return aggregated
}

// printResult emits trec_eval style tab-separated output.
func printResult(cmd *cobra.Command, res runResult, labelPath bool) {
	out := cmd.OutOrStdout()
	if labelPath {
		fmt.Fprintf(out, "# %s\n", res.Path)
	}

	if res.PerQuery != nil {
		queryIDs := make([]string, 0, len(res.PerQuery))
		for qid := range res.PerQuery {
			queryIDs = append(queryIDs, qid)
		}
		sort.Strings(queryIDs)

		for _, qid := range queryIDs {
			for _, name := range sortedKeys(res.PerQuery[qid]) {
				fmt.Fprintf(out, "%s\t%s\t%s\n", name, qid, formatScore(res.PerQuery[qid][name]))
			}
		}
	}

	for _, name := range sortedKeys(res.Aggregated) {
		fmt.Fprintf(out, "%s\tall\t%s\n", name, formatScore(res.Aggregated[name]))
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
