package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/georecon/internal/domain"
	dombatch "github.com/kailas-cloud/georecon/internal/domain/batch"
	"github.com/kailas-cloud/georecon/internal/domain/candidate"
	"github.com/kailas-cloud/georecon/internal/domain/query"
	"github.com/kailas-cloud/georecon/internal/generation"
	"github.com/kailas-cloud/georecon/internal/logger"
	"github.com/kailas-cloud/georecon/internal/scorer"
	"github.com/kailas-cloud/georecon/internal/searchindex"
)

// Defaults for Config.
const (
	DefaultMaxBatchSize = 1000
	DefaultWorkers      = 8
	DefaultTimeout      = 10 * time.Second
)

// Config tunes the engine.
type Config struct {
	MaxBatchSize        int
	Workers             int
	Timeout             time.Duration
	MaxCandidates       int
	MaxPrefixExpansions int
	MaxTypoExpansions   int
	Scoring             scorer.Config
}

func (c *Config) applyDefaults() {
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Scoring == (scorer.Config{}) {
		c.Scoring = scorer.DefaultConfig()
	}
}

// Item is one keyed entry of a batch. Invalid carries a decode or validation
// error for the key; such items are answered without being dispatched.
type Item struct {
	Query   query.Query
	Invalid error
}

// Service answers reconciliation batches.
type Service struct {
	gens     GenerationSource
	cfg      Config
	observer Observer
}

// New creates a reconciliation service.
func New(gens GenerationSource, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{gens: gens, cfg: cfg}
}

// WithObserver attaches an outcome observer.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// MaxBatchSize returns the configured batch cap.
func (s *Service) MaxBatchSize() int { return s.cfg.MaxBatchSize }

type outcome struct {
	key    string
	result dombatch.Result
}

// Reconcile answers every key of items. The response key set always equals the
// request key set; only an oversized batch or a missing generation fail as a whole.
func (s *Service) Reconcile(ctx context.Context, items map[string]Item) (map[string]dombatch.Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	if len(items) > s.cfg.MaxBatchSize {
		err := fmt.Errorf("batch of %d queries exceeds %d: %w", len(items), s.cfg.MaxBatchSize, domain.ErrBatchTooLarge)
		s.batchDone(len(items), start, err)
		return nil, err
	}
	// The generation is pinned here; a concurrent reload does not affect this batch.
	gen := s.gens.Current()
	if gen == nil {
		err := fmt.Errorf("no generation loaded: %w", domain.ErrNotReady)
		s.batchDone(len(items), start, err)
		return nil, err
	}
	ctx = logger.With(ctx, zap.String("generation", gen.ID()))
	log = logger.FromContext(ctx)
	log.Debug("batch received", zap.Int("queries", len(items)))

	results := make(map[string]dombatch.Result, len(items))
	pending := make([]string, 0, len(items))
	for key, it := range items {
		if it.Invalid != nil {
			results[key] = s.queryDone(dombatch.NewError(key, it.Invalid))
			continue
		}
		pending = append(pending, key)
	}

	if len(pending) > 0 {
		log.Debug("batch dispatch", zap.Int("pending", len(pending)), zap.Int("workers", s.cfg.Workers))
		s.dispatch(ctx, gen, items, pending, results)
	}

	log.Debug("batch aggregated", zap.Int("results", len(results)), zap.Duration("elapsed", time.Since(start)))
	s.batchDone(len(items), start, nil)
	return results, nil
}

// dispatch runs pending queries on a bounded worker pool under the batch timeout.
func (s *Service) dispatch(
	ctx context.Context, gen *generation.Generation,
	items map[string]Item, pending []string, results map[string]dombatch.Result,
) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	jobs := make(chan string, len(pending))
	for _, k := range pending {
		jobs <- k
	}
	close(jobs)

	// Buffered to len(pending) so workers never block after the collector gives up.
	out := make(chan outcome, len(pending))
	workers := min(s.cfg.Workers, len(pending))
	for range workers {
		go func() {
			for key := range jobs {
				if ctx.Err() != nil {
					return
				}
				q := items[key].Query
				cands, err := s.Run(ctx, gen, &q)
				if err != nil {
					out <- outcome{key: key, result: dombatch.NewError(key, err)}
					continue
				}
				out <- outcome{key: key, result: dombatch.NewOK(key, cands)}
			}
		}()
	}

	for range pending {
		select {
		case o := <-out:
			results[o.key] = s.queryDone(o.result)
		case <-ctx.Done():
			s.drain(out, results)
			s.fillTimedOut(ctx, pending, results)
			return
		}
	}
}

// drain keeps results that finished together with the deadline.
func (s *Service) drain(out <-chan outcome, results map[string]dombatch.Result) {
	for {
		select {
		case o := <-out:
			results[o.key] = s.queryDone(o.result)
		default:
			return
		}
	}
}

func (s *Service) fillTimedOut(ctx context.Context, pending []string, results map[string]dombatch.Result) {
	n := 0
	for _, key := range pending {
		if _, done := results[key]; done {
			continue
		}
		results[key] = s.queryDone(dombatch.NewError(key, fmt.Errorf("%w: %w", domain.ErrTimeout, ctx.Err())))
		n++
	}
	logger.FromContext(ctx).Warn("batch timed out", zap.Int("unfinished", n), zap.Duration("timeout", s.cfg.Timeout))
}

// Run answers a single query against gen.
func (s *Service) Run(ctx context.Context, gen *generation.Generation, q *query.Query) ([]candidate.Candidate, error) {
	if q.Text() == "" {
		return []candidate.Candidate{}, nil
	}

	hits := gen.Index().Lookup(q.Text(), searchindex.Options{
		TypeFilters:         q.TypeFilters(),
		MaxCandidates:       s.cfg.MaxCandidates,
		MaxPrefixExpansions: s.cfg.MaxPrefixExpansions,
		MaxTypoExpansions:   s.cfg.MaxTypoExpansions,
	})
	if len(hits) == 0 {
		return []candidate.Candidate{}, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	ents, err := gen.Resolver().GetMany(ctx, ids)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		}
		return nil, fmt.Errorf("resolve candidates: %w", err)
	}

	prepared := scorer.Prepare(q.Text())
	cands := make([]candidate.Candidate, 0, len(ents))
	for i := range ents {
		r := prepared.Score(&ents[i])
		if r.Score <= 0 {
			continue
		}
		cands = append(cands, candidate.New(&ents[i], "", r.Score))
	}

	limit := q.Limit()
	if limit <= 0 {
		limit = query.DefaultLimit
	}
	s.cfg.Scoring.Rank(cands)
	// the runner-up decides the match flag even when the limit drops it
	s.cfg.Scoring.ApplyMatchFlag(cands)
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands, nil
}

func (s *Service) queryDone(r dombatch.Result) dombatch.Result {
	if s.observer != nil {
		s.observer.QueryDone(string(r.Status()), len(r.Candidates()))
	}
	return r
}

func (s *Service) batchDone(size int, start time.Time, err error) {
	if s.observer != nil {
		s.observer.BatchDone(size, time.Since(start), err)
	}
}
