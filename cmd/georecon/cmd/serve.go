package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/georecon/internal/config"
	dbRedis "github.com/kailas-cloud/georecon/internal/db/redis"
	"github.com/kailas-cloud/georecon/internal/generation"
	"github.com/kailas-cloud/georecon/internal/metrics"
	entityrepo "github.com/kailas-cloud/georecon/internal/repository/entity"
	chiTransport "github.com/kailas-cloud/georecon/internal/transport/chi"
	healthuc "github.com/kailas-cloud/georecon/internal/usecase/health"
	reconcileuc "github.com/kailas-cloud/georecon/internal/usecase/reconcile"
	reloaduc "github.com/kailas-cloud/georecon/internal/usecase/reload"
	suggestuc "github.com/kailas-cloud/georecon/internal/usecase/suggest"
	"github.com/kailas-cloud/georecon/internal/version"
	"github.com/kailas-cloud/georecon/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the gazetteer and serve the reconciliation API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger := a.cfg, a.logger

	logger.Info("Starting georecon API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("data_path", cfg.Data.Path),
		zap.String("store_driver", cfg.Store.Driver),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// External record store. Pass nil interfaces (not typed nil pointers)
	// when records stay in memory.
	var (
		publisher generation.Publisher
		retirer   reloaduc.Retirer
		pinger    healthuc.DBPinger
	)
	if cfg.Store.Driver == config.DriverRedis {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Store.Addrs,
			Username: cfg.Store.Username,
			Password: cfg.Store.Password,
			DB:       cfg.Store.DB,
		})
		if err != nil {
			return fmt.Errorf("create redis store: %w", err)
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
			return fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Store.Addrs))

		repo := entityrepo.New(store, cfg.Store.KeyPrefix, time.Duration(cfg.Store.RetireTTLSec)*time.Second)
		publisher, retirer, pinger = repo, repo, store
	}

	holder := generation.NewHolder(nil)
	reloadSvc := reloaduc.New(a.builder(publisher), holder, retirer, logger).
		WithObserver(metrics.Observer{})

	if _, err := reloadSvc.Reload(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	reconcileSvc := reconcileuc.New(holder, a.reconcileConfig()).WithObserver(metrics.Observer{})
	suggestSvc := suggestuc.New(holder)
	healthSvc := healthuc.New(holder, pinger)

	trigger, triggers := reloaduc.Trigger()
	go reloadSvc.Run(ctx, triggers)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				logger.Info("Received SIGHUP, reloading")
				trigger()
			}
		}
	}()

	if cfg.Data.Watch {
		w, err := watcher.New(cfg.Data.Path, time.Duration(cfg.Data.DebounceSec)*time.Second, logger)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		if err := w.Watch(trigger); err != nil {
			return fmt.Errorf("watch %s: %w", cfg.Data.Path, err)
		}
		defer func() { _ = w.Stop() }()
		logger.Info("Watching data file", zap.String("path", w.Path()))
	}

	server := chiTransport.NewServer(
		reconcileSvc, suggestSvc, healthSvc,
		chiTransport.ServiceInfo{
			Name:            cfg.Service.Name,
			IdentifierSpace: cfg.Service.IdentifierSpace,
			SchemaSpace:     cfg.Service.SchemaSpace,
			BaseURL:         cfg.Service.BaseURL,
			DefaultTypes:    cfg.Service.DefaultTypes,
		},
		chiTransport.Limits{DefaultLimit: cfg.Reconcile.DefaultLimit, MaxLimit: cfg.Reconcile.MaxLimit},
		logger,
	)
	handler := chiTransport.NewRouter(server, logger, metrics.Middleware())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
