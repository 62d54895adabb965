package georecon

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/georecon/internal/domain"
	dombatch "github.com/kailas-cloud/georecon/internal/domain/batch"
	"github.com/kailas-cloud/georecon/internal/domain/candidate"
	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/domain/query"
	reconcileuc "github.com/kailas-cloud/georecon/internal/usecase/reconcile"
)

// Reconcile answers a keyed batch of queries. Invalid queries get a per-key
// Err wrapping ErrInvalidQuery; the call itself fails only for batch-level
// problems (ErrBatchTooLarge, ErrNotReady).
func (e *Engine) Reconcile(ctx context.Context, queries map[string]Query) (_ map[string]Result, err error) {
	start := time.Now()
	defer func() { e.obs.observe("reconcile", start, err) }()

	items := make(map[string]reconcileuc.Item, len(queries))
	for key, q := range queries {
		items[key] = e.toItem(q)
	}

	res, err := e.reconcile.Reconcile(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	out := make(map[string]Result, len(res))
	for key, r := range res {
		out[key] = resultFromDomain(r)
	}
	return out, nil
}

func (e *Engine) toItem(q Query) reconcileuc.Item {
	props := make([]query.Property, len(q.Properties))
	for i, p := range q.Properties {
		props[i] = query.Property{PID: p.PID, Values: p.Values}
	}
	dq, err := query.NewWithLimits(q.Text, q.Types, q.Limit, props, e.limits.defaultLimit, e.limits.maxLimit)
	if err != nil {
		return reconcileuc.Item{Invalid: fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)}
	}
	return reconcileuc.Item{Query: dq}
}

func resultFromDomain(r dombatch.Result) Result {
	cands := r.Candidates()
	out := Result{Candidates: make([]Candidate, len(cands)), Err: r.Err()}
	for i := range cands {
		out.Candidates[i] = candidateFromDomain(&cands[i])
	}
	return out
}

func candidateFromDomain(c *candidate.Candidate) Candidate {
	return Candidate{
		ID:         c.EntityID(),
		Name:       c.Name(),
		Type:       typeFromDomain(c.Type()),
		Score:      c.Score(),
		Match:      c.Match(),
		Country:    c.CountryCode(),
		Population: c.Population(),
	}
}

func typeFromDomain(t entity.Type) Type {
	return Type{ID: t.ID(), Name: t.Name()}
}
