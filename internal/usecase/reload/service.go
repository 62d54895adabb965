package reload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/georecon/internal/generation"
)

// Service rebuilds and swaps generations. Reloads are serialized; a failed
// build leaves the active generation untouched.
type Service struct {
	builder  Builder
	holder   Swapper
	retirer  Retirer
	observer Observer
	logger   *zap.Logger

	mu sync.Mutex
}

// New creates a reload service. retirer may be nil.
func New(builder Builder, holder Swapper, retirer Retirer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{builder: builder, holder: holder, retirer: retirer, logger: logger}
}

// WithObserver attaches an outcome observer.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Reload builds a new generation and activates it.
func (s *Service) Reload(ctx context.Context) (*generation.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	g, err := s.builder.Build(ctx)
	if err != nil {
		s.logger.Error("Generation build failed, keeping active generation",
			zap.String("active", activeID(s.holder.Current())),
			zap.Error(err),
		)
		s.done(nil, start, err)
		return nil, fmt.Errorf("build generation: %w", err)
	}

	old := s.holder.Swap(g)
	st := g.Stats()
	s.logger.Info("Generation activated",
		zap.String("generation", g.ID()),
		zap.String("previous", activeID(old)),
		zap.String("source", g.Source()),
		zap.Int("entities", g.Len()),
		zap.Int("rows_read", st.RowsRead),
		zap.Int("rows_skipped", st.SkippedTotal()),
		zap.Any("skipped", st.Skipped),
		zap.Bool("external", g.External()),
		zap.Duration("duration", time.Since(start)),
	)
	s.done(g, start, nil)

	if old != nil && old.External() && s.retirer != nil {
		if err := s.retirer.Retire(ctx, old.ID()); err != nil {
			s.logger.Warn("Retire previous generation failed", zap.String("generation", old.ID()), zap.Error(err))
		}
	}
	return g, nil
}

// Run reloads on every trigger until ctx is done. Triggers arriving during a
// reload are coalesced into one follow-up reload.
func (s *Service) Run(ctx context.Context, triggers <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-triggers:
			_, _ = s.Reload(ctx)
		}
	}
}

// Trigger returns a non-blocking trigger func and the channel Run consumes.
func Trigger() (func(), <-chan struct{}) {
	ch := make(chan struct{}, 1)
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}, ch
}

func (s *Service) done(g *generation.Generation, start time.Time, err error) {
	if s.observer != nil {
		s.observer.ReloadDone(g, time.Since(start), err)
	}
}

func activeID(g *generation.Generation) string {
	if g == nil {
		return ""
	}
	return g.ID()
}
