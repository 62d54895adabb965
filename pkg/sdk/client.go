package georecon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/georecon/internal/db/redis"
	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/entitystore"
	"github.com/kailas-cloud/georecon/internal/generation"
	"github.com/kailas-cloud/georecon/internal/loader"
	entityrepo "github.com/kailas-cloud/georecon/internal/repository/entity"
	healthuc "github.com/kailas-cloud/georecon/internal/usecase/health"
	reconcileuc "github.com/kailas-cloud/georecon/internal/usecase/reconcile"
	reloaduc "github.com/kailas-cloud/georecon/internal/usecase/reload"
	suggestuc "github.com/kailas-cloud/georecon/internal/usecase/suggest"
)

const defaultReadinessTimeout = 10 * time.Second

// Engine is the georecon SDK entry point.
type Engine struct {
	store     *dbRedis.Store
	holder    *generation.Holder
	reconcile *reconcileuc.Service
	suggest   *suggestuc.Service
	health    *healthuc.Service
	reload    *reloaduc.Service
	limits    limits
	obs       *observer
}

type limits struct {
	defaultLimit int
	maxLimit     int
}

// New loads the gazetteer and builds the first generation.
// The provided context bounds the initial load and the Redis readiness check.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	cfg := &engineConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.source == nil && cfg.rows == nil {
		return nil, errors.New("georecon: data source required (use WithFile, WithSQLite or WithRows)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		holder: generation.NewHolder(nil),
		limits: limits{defaultLimit: cfg.defaultLimit, maxLimit: cfg.maxLimit},
		obs:    obs,
	}

	var (
		publisher generation.Publisher
		retirer   reloaduc.Retirer
		pinger    healthuc.DBPinger
	)
	if len(cfg.redisAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.redisAddrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("georecon: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("georecon: redis not ready: %w", err)
		}
		repo := entityrepo.New(s, cfg.keyPrefix, max(cfg.retireTTL, cfg.timeout))
		e.store = s
		publisher, retirer, pinger = repo, repo, s
	}

	b := &builder{source: cfg.source, rows: cfg.rows, sizeHint: cfg.sizeHint, publisher: publisher}
	e.reload = reloaduc.New(b, e.holder, retirer, zap.NewNop())
	e.reconcile = reconcileuc.New(e.holder, reconcileuc.Config{
		MaxBatchSize: cfg.maxBatchSize,
		Workers:      cfg.workers,
		Timeout:      cfg.timeout,
	})
	e.suggest = suggestuc.New(e.holder)
	e.health = healthuc.New(e.holder, pinger)

	if err := e.Reload(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// Reload rebuilds the index from the configured source and swaps it in.
// On failure the previous generation keeps serving.
func (e *Engine) Reload(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { e.obs.observe("reload", start, err) }()

	g, err := e.reload.Reload(ctx)
	if err != nil {
		return fmt.Errorf("georecon: %w", err)
	}
	e.obs.setEntities(g.Len())
	return nil
}

// Len returns the number of indexed entities.
func (e *Engine) Len() int {
	if g := e.holder.Current(); g != nil {
		return g.Len()
	}
	return 0
}

// Close releases all resources.
func (e *Engine) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// builder implements reload.Builder over a file source or in-memory rows.
type builder struct {
	source    *loader.Config
	rows      []Row
	sizeHint  int
	publisher generation.Publisher
}

func (b *builder) Build(ctx context.Context) (*generation.Generation, error) {
	var (
		src  entitystore.Source
		name string
	)
	if b.source != nil {
		ls, err := loader.Open(*b.source)
		if err != nil {
			return nil, err
		}
		src, name = ls, ls.Name()
	} else {
		src, name = rowSource(b.rows), "rows"
	}
	return generation.Build(ctx, src, generation.BuildOptions{
		SourceName: name,
		SizeHint:   b.sizeHint,
		Publisher:  b.publisher,
	})
}

type rowSource []Row

func (s rowSource) Read(ctx context.Context, emit func(entity.RawRow) error) error {
	for _, r := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(entity.RawRow(r)); err != nil {
			return err
		}
	}
	return nil
}
