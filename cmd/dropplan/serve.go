package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/dropplan/internal/application"
	"github.com/example/dropplan/internal/config"
	httptransport "github.com/example/dropplan/internal/http"
	"github.com/example/dropplan/internal/metrics"
	"github.com/example/dropplan/internal/persistence/sqlite"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stdout, cfg.LogLevel)

			store, err := openStore(cmd.Context(), cfg.SQLitePath, logger)
			if err != nil {
				return err
			}
			defer closeStore(store, logger)

			server := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           buildHandler(cfg, store, logger, time.Now),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			return runServer(cmd.Context(), server, logger)
		},
	}
}

// buildHandler wires services, handlers and middleware over store.
func buildHandler(cfg config.Config, store *sqlite.Store, logger *slog.Logger, now func() time.Time) http.Handler {
	newID := uuid.NewString
	newToken := func() string { return uuid.NewString() + uuid.NewString() }

	routerCfg := httptransport.RouterConfig{
		Health:     store.Ping,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	}

	var dropPlanOpts []application.DropPlanServiceOption
	if cfg.MetricsEnabled {
		registry := metrics.New(metrics.WithRuntimeCollectors())
		dropPlanOpts = append(dropPlanOpts, application.WithCapacityObserver(registry))
		routerCfg.Requests = registry
		routerCfg.Metrics = registry.Handler()
	}

	authService := application.NewAuthServiceWithLogger(
		application.NewStoreCredentials(store),
		application.NewStoreSessions(store),
		application.VerifyPassword,
		newToken,
		now,
		cfg.SessionTTL,
		logger,
	)
	userService := application.NewUserService(store, newID, now, logger,
		application.WithPasswordHasher(application.HashPassword),
		application.WithDefaultCapacity(cfg.DefaultCapacity),
	)

	routerCfg.Sessions = authService
	routerCfg.Auth = httptransport.NewAuthHandler(authService, logger)
	routerCfg.Users = httptransport.NewUserHandler(userService, logger)
	routerCfg.Projects = httptransport.NewProjectHandler(application.NewProjectService(store, newID, now, logger), logger)
	routerCfg.Iterations = httptransport.NewIterationHandler(application.NewIterationService(store, newID, now, logger), logger)
	routerCfg.WorkItems = httptransport.NewWorkItemHandler(application.NewWorkItemService(store, newID, now, logger), logger)
	routerCfg.WorkSessions = httptransport.NewWorkSessionHandler(application.NewWorkSessionService(store, newID, now, logger), logger)
	routerCfg.DropPlan = httptransport.NewDropPlanHandler(application.NewDropPlanService(store, newID, now, logger, dropPlanOpts...), logger)
	routerCfg.Calendar = httptransport.NewCalendarHandler(application.NewCalendarService(store, newID, now, logger), logger)

	return httptransport.NewRouter(routerCfg)
}

// runServer serves until ctx is cancelled, then drains in-flight requests.
func runServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errs := make(chan error, 1)
	go func() {
		logger.Info("dropplan API listening", "addr", server.Addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("dropplan API stopped")
	return nil
}
