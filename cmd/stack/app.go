package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	filestore "github.com/SscSPs/stack_budget/internal/adapters/localstore/file"
	memstore "github.com/SscSPs/stack_budget/internal/adapters/localstore/memory"
	pgstore "github.com/SscSPs/stack_budget/internal/adapters/localstore/pgsql"
	"github.com/SscSPs/stack_budget/internal/adapters/remotestore/gcs"
	"github.com/SscSPs/stack_budget/internal/adapters/remotestore/gist"
	portsrepo "github.com/SscSPs/stack_budget/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/core/services"
	"github.com/SscSPs/stack_budget/internal/metrics"
	"github.com/SscSPs/stack_budget/internal/middleware"
	"github.com/SscSPs/stack_budget/internal/platform/config"
	"github.com/SscSPs/stack_budget/pkg/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app is everything a command needs, built from the environment.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	local    portsrepo.KeyValueStore
	services *portssvc.ServiceContainer
	closers  []func()
}

func newApp(ctx context.Context, logLevel string) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = strings.ToLower(logLevel)
	}

	// Logs go to stderr so command output stays clean on stdout
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx = middleware.WithLogger(ctx, logger)
	local, err := a.openLocal(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.local = local

	repos := portsrepo.RepositoryProvider{Local: local, Remote: a.openRemote()}
	container, err := services.NewServiceContainer(ctx, cfg, repos, metrics.New(a.registry))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.services = container
	return a, nil
}

func (a *app) openLocal(ctx context.Context) (portsrepo.KeyValueStore, error) {
	switch a.cfg.LocalBackend {
	case config.LocalBackendMemory:
		a.logger.Warn("Using in-memory local store; the document is lost on exit")
		return memstore.NewStore(), nil
	case config.LocalBackendPostgres:
		pool, err := database.NewPgxPool(ctx, a.cfg.DatabaseURL, a.cfg.EnableDBCheck)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		a.closers = append(a.closers, func() { database.ClosePgxPool(pool) })

		a.logger.Info("Running database migrations...")
		if err := pgstore.RunMigrations(a.cfg.DatabaseURL, a.logger); err != nil {
			return nil, err
		}
		return pgstore.NewKeyValueRepository(pool), nil
	default:
		store, err := filestore.NewStore(a.cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open data dir: %w", err)
		}
		return store, nil
	}
}

func (a *app) openRemote() portsrepo.RemoteStore {
	if a.cfg.RemoteBackend == config.RemoteBackendGCS {
		a.logger.Info("Using GCS remote store", slog.String("bucket", a.cfg.GCSBucket))
		return gcs.NewStore(a.cfg.GCSBucket)
	}
	return gist.NewStore(a.cfg.GistAPIURL, a.cfg.RemoteTimeout)
}

// Close waits for background autosaves and releases storage.
func (a *app) Close() {
	if a.services != nil {
		a.services.Sync.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
