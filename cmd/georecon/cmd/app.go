package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/georecon/internal/config"
	"github.com/kailas-cloud/georecon/internal/generation"
	"github.com/kailas-cloud/georecon/internal/loader"
	logpkg "github.com/kailas-cloud/georecon/internal/logger"
	"github.com/kailas-cloud/georecon/internal/scorer"
	reconcileuc "github.com/kailas-cloud/georecon/internal/usecase/reconcile"
)

// app carries what every command needs: configuration and a logger.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
}

func newApp() (*app, error) {
	env := envFlag
	if env == "" {
		env = config.GetEnv()
	}
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return &app{env: env, cfg: cfg, logger: logger}, nil
}

func (a *app) close() { _ = a.logger.Sync() }

func (a *app) loaderConfig() loader.Config {
	return loader.Config{
		Kind:  loader.Kind(a.cfg.Data.Kind),
		Path:  a.cfg.Data.Path,
		Table: a.cfg.Data.Table,
	}
}

func (a *app) reconcileConfig() reconcileuc.Config {
	rc := a.cfg.Reconcile
	return reconcileuc.Config{
		MaxBatchSize:        rc.MaxBatchSize,
		Workers:             rc.Workers,
		Timeout:             time.Duration(rc.TimeoutMs) * time.Millisecond,
		MaxCandidates:       rc.MaxCandidates,
		MaxPrefixExpansions: rc.MaxPrefixExpansions,
		MaxTypoExpansions:   rc.MaxTypoExpansions,
		Scoring: scorer.Config{
			AutoMatchScore: rc.AutoMatchScore,
			AutoMatchGap:   rc.AutoMatchGap,
			TieMargin:      rc.TieMargin,
		},
	}
}

// sourceBuilder builds generations from the configured data source.
// It implements reload.Builder.
type sourceBuilder struct {
	source    loader.Config
	sizeHint  int
	publisher generation.Publisher
}

func (a *app) builder(publisher generation.Publisher) *sourceBuilder {
	return &sourceBuilder{source: a.loaderConfig(), sizeHint: a.cfg.Data.SizeHint, publisher: publisher}
}

func (b *sourceBuilder) Build(ctx context.Context) (*generation.Generation, error) {
	src, err := loader.Open(b.source)
	if err != nil {
		return nil, err
	}
	return generation.Build(ctx, src, generation.BuildOptions{
		SourceName: src.Name(),
		SizeHint:   b.sizeHint,
		Publisher:  b.publisher,
	})
}
