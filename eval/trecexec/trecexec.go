// Package trecexec adapts an external trec_eval binary to the eval
// engine interface. The binary owns every measure computation; this
// package only renders the input files, drives the process and parses
// its per-query output.
package trecexec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/terrierteam/treceval/eval"
	"github.com/terrierteam/treceval/trec"
)

// DefaultBinary is the executable looked up on PATH when no explicit
// path is configured.
const DefaultBinary = "trec_eval"

func init() {
	eval.Register("trec_eval", Factory(DefaultBinary))
}

// Factory returns an engine factory bound to a specific trec_eval
// binary.
func Factory(binary string) eval.EngineFactory {
	return func(cfg eval.EngineConfig) (eval.Engine, error) {
		return New(binary, cfg)
	}
}

// Engine invokes trec_eval once per Evaluate call. The qrel file is
// rendered at construction time and reused across calls.
type Engine struct {
	binary   string
	cfg      eval.EngineConfig
	qrelText []byte
}

// New builds a trec_eval-backed engine. The binary is not probed here;
// a missing executable surfaces on the first Evaluate call.
func New(binary string, cfg eval.EngineConfig) (*Engine, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Engine{
		binary:   binary,
		cfg:      cfg,
		qrelText: renderQrel(cfg.Qrels),
	}, nil
}

// Evaluate writes the qrels and run to a temporary directory, invokes
// the binary with per-query output enabled and returns the parsed
// query-by-measure scores. Aggregate ("all") rows are discarded;
// cross-query aggregation belongs to the caller.
func (e *Engine) Evaluate(ctx context.Context, run trec.Run) (eval.Results, error) {
	dir, err := os.MkdirTemp("", "treceval-")
	if err != nil {
		return nil, fmt.Errorf("trecexec: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	qrelPath := filepath.Join(dir, "qrels.txt")
	if err := os.WriteFile(qrelPath, e.qrelText, 0o600); err != nil {
		return nil, fmt.Errorf("trecexec: write qrels: %w", err)
	}
	runPath := filepath.Join(dir, "run.txt")
	if err := os.WriteFile(runPath, renderRun(run), 0o600); err != nil {
		return nil, fmt.Errorf("trecexec: write run: %w", err)
	}

	args := []string{"-q", "-l", strconv.Itoa(e.cfg.RelevanceLevel)}
	if e.cfg.JudgedDocsOnly {
		args = append(args, "-J")
	}
	for _, m := range e.cfg.Measures {
		args = append(args, "-m", m)
	}
	args = append(args, qrelPath, runPath)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("trecexec: %s failed: %s", e.binary, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("trecexec: running %s: %w", e.binary, err)
	}

	return parseOutput(out)
}
