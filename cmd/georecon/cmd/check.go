package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/georecon/internal/generation"
)

var checkTopTypes int

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Build a generation from the configured data source and print its stats",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().IntVar(&checkTopTypes, "types", 10, "number of most frequent types to list")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	start := time.Now()
	g, err := a.builder(nil).Build(cmd.Context())
	if err != nil {
		return err
	}
	printStats(cmd.OutOrStdout(), g, time.Since(start), checkTopTypes)
	return nil
}

func printStats(w io.Writer, g *generation.Generation, took time.Duration, topTypes int) {
	st := g.Stats()
	fmt.Fprintf(w, "source:    %s\n", g.Source())
	fmt.Fprintf(w, "rows read: %d\n", st.RowsRead)
	fmt.Fprintf(w, "entities:  %d\n", g.Len())
	fmt.Fprintf(w, "skipped:   %d\n", st.SkippedTotal())

	reasons := make([]string, 0, len(st.Skipped))
	for r := range st.Skipped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "  %-24s %d\n", r, st.Skipped[r])
	}

	types := g.Index().TypeCounts()
	if topTypes > 0 && len(types) > topTypes {
		types = types[:topTypes]
	}
	if len(types) > 0 {
		fmt.Fprintln(w, "types:")
		for _, tc := range types {
			fmt.Fprintf(w, "  %-10s %d\n", tc.Type.ID(), tc.Count)
		}
	}
	fmt.Fprintf(w, "built in:  %s\n", took.Round(time.Millisecond))
}
