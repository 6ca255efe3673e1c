// Package app provides the top-level application lifecycle management for the
// dividend tracker. It wires together all dependencies (stores, caches, blob
// storage, services, the sync scheduler, and notifications) and runs the HTTP
// server and scheduler goroutines until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantfold/divtracker/internal/config"
	"github.com/quantfold/divtracker/internal/index"
	"github.com/quantfold/divtracker/internal/pipeline"
	"github.com/quantfold/divtracker/internal/scrape"
	"github.com/quantfold/divtracker/internal/server"
	"github.com/quantfold/divtracker/internal/server/handler"
	"github.com/quantfold/divtracker/internal/server/ws"
	"github.com/quantfold/divtracker/internal/service"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the
// WebSocket hub, the sync scheduler, and the HTTP server, and blocks until the
// context is cancelled. On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	// Autocomplete index: rebuild from the company store before serving.
	idx := index.NewService(deps.CompanyStore, a.logger)
	if err := idx.Rebuild(ctx); err != nil {
		return fmt.Errorf("app: rebuild autocomplete index: %w", err)
	}
	a.logger.InfoContext(ctx, "autocomplete index ready", slog.Int("names", idx.Len()))

	hub := ws.NewHub(a.logger)

	scraper := scrape.New(scrape.Config{
		BaseURL:    a.cfg.Scrape.BaseURL,
		UserAgent:  a.cfg.Scrape.UserAgent,
		Timeout:    a.cfg.Scrape.Timeout.Duration,
		StartEpoch: a.cfg.Scrape.StartEpoch,
	}, deps.Archive, a.logger)

	orchestrator := pipeline.NewOrchestrator(
		deps.CompanyStore,
		deps.DividendStore,
		deps.FinanceCache,
		scraper,
		deps.Notifier,
		hub,
		a.cfg.Scheduler.Cron,
		a.cfg.Scheduler.Pacing.Duration,
		a.logger,
	)

	companySvc := service.NewCompanyService(
		deps.CompanyStore,
		deps.DividendStore,
		deps.FinanceCache,
		scraper,
		idx,
		deps.Archive,
		hub,
		a.logger,
	)
	financeSvc := service.NewFinanceService(
		deps.CompanyStore,
		deps.DividendStore,
		deps.FinanceCache,
		a.logger,
	)

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.logger),
		Companies: handler.NewCompanyHandler(companySvc, a.logger),
		Finance:   handler.NewFinanceHandler(financeSvc, a.logger),
		Sync:      handler.NewSyncHandler(orchestrator, a.logger),
	}
	if deps.BlobReader != nil {
		handlers.Archive = handler.NewArchiveHandler(deps.BlobReader, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	g.Go(func() error {
		return orchestrator.RunCron(ctx)
	})

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})

	// Shut the HTTP server down when the context ends so in-flight requests
	// get a grace period.
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("http server shutdown", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
