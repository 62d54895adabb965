package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/georecon/internal/domain/query"
	"github.com/kailas-cloud/georecon/internal/generation"
	reconcileuc "github.com/kailas-cloud/georecon/internal/usecase/reconcile"
)

var (
	queryTypes []string
	queryLimit int
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Reconcile one name against a freshly built generation and print the candidates as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringSliceVarP(&queryTypes, "type", "t", nil, "type filter prefix, e.g. P or P.PPLC (repeatable)")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "max candidates (default from config)")
}

type candidateOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Score      int    `json:"score"`
	Match      bool   `json:"match"`
	Country    string `json:"country,omitempty"`
	Population int64  `json:"population"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	q, err := query.NewWithLimits(strings.Join(args, " "), queryTypes, queryLimit, nil,
		a.cfg.Reconcile.DefaultLimit, a.cfg.Reconcile.MaxLimit)
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	g, err := a.builder(nil).Build(cmd.Context())
	if err != nil {
		return err
	}
	svc := reconcileuc.New(generation.NewHolder(g), a.reconcileConfig())
	res, err := svc.Reconcile(cmd.Context(), map[string]reconcileuc.Item{"q": {Query: q}})
	if err != nil {
		return err
	}
	r := res["q"]
	if err := r.Err(); err != nil {
		return err
	}

	cands := r.Candidates()
	out := make([]candidateOutput, len(cands))
	for i := range cands {
		c := &cands[i]
		out[i] = candidateOutput{
			ID:         c.EntityID(),
			Name:       c.Name(),
			Type:       c.Type().ID(),
			Score:      c.Score(),
			Match:      c.Match(),
			Country:    c.CountryCode(),
			Population: c.Population(),
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
