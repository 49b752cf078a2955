package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terrierteam/treceval/measure"
)

var measuresCmd = &cobra.Command{
	Use:   "measures",
	Short: "List supported measures and nicknames",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Measures:")
		for _, name := range measure.Supported {
			fmt.Fprintf(out, "  %s\n", name)
		}

		nicknames := make([]string, 0, len(measure.Nicknames))
		for name := range measure.Nicknames {
			nicknames = append(nicknames, name)
		}
		sort.Strings(nicknames)

		fmt.Fprintln(out, "\nNicknames:")
		for _, name := range nicknames {
			fmt.Fprintf(out, "  %s: %s\n", name, strings.Join(measure.Nicknames[name], " "))
		}
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize MEASURE...",
	Short: "Canonicalize measure specifications",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalized, err := measure.Normalize(args)
		if err != nil {
			return err
		}
		for _, name := range normalized {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
