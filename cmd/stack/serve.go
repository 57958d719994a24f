package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/stack_budget/internal/adapters/remotestore/gcs"
	portsrepo "github.com/SscSPs/stack_budget/internal/core/ports/repositories"
	"github.com/SscSPs/stack_budget/internal/core/services"
	"github.com/SscSPs/stack_budget/internal/handlers"
	"github.com/SscSPs/stack_budget/internal/middleware"
	"github.com/SscSPs/stack_budget/internal/offline"
	"github.com/SscSPs/stack_budget/internal/platform/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the local budget API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *logLevel)
		},
	}
}

func serve(parent context.Context, logLevel string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, logLevel)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger
	ctx = middleware.WithLogger(ctx, logger)

	// Pull the remote copy once at startup when credentials are cached
	if err := a.services.Sync.LoadIfConfigured(ctx); err != nil {
		logger.Warn("Startup load failed", slog.String("error", err.Error()))
	}

	if notifier, ok := a.local.(portsrepo.ChangeNotifier); ok && a.cfg.WatchLocal {
		go func() {
			err := notifier.Watch(ctx, func(key string) {
				if key != services.DocumentKey {
					return
				}
				logger.Info("Local document changed by another process")
				_ = a.services.Sync.ReloadLocal(ctx)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Local store watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	extras := handlers.Extras{
		Metrics: promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
	}
	if a.cfg.AssetOrigin != "" {
		cache := offline.NewAssetCache(a.cfg.AssetOrigin, offline.DefaultPolicy(remoteAPIHost(a.cfg)), nil)
		if err := cache.Install(ctx); err != nil {
			// Assets are still served network-first until a later install succeeds
			logger.Warn("Failed to pre-cache app shell", slog.String("error", err.Error()))
		}
		extras.Assets = cache
	}

	router, err := handlers.NewRouter(a.cfg, logger, a.services, extras)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", a.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Server stopped; waiting for pending syncs")
	return nil
}

// remoteAPIHost is the host of the selected remote backend, which the
// offline policy always sends to the network.
func remoteAPIHost(cfg *config.Config) string {
	if cfg.RemoteBackend == config.RemoteBackendGCS {
		return gcs.APIHost
	}
	return hostOf(cfg.GistAPIURL)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
