package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreybb/readings/api"
	"github.com/coreybb/readings/cache"
	"github.com/coreybb/readings/datastore"
	"github.com/coreybb/readings/esv"
	"github.com/coreybb/readings/readingplan"
	rh "github.com/coreybb/readings/route-handlers"
	"github.com/coreybb/readings/scheduler"
	"github.com/coreybb/readings/tasks"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the readings page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("port", defaultPort, "port to listen on")
	_ = v.BindPFlag(keyPort, cmd.Flags().Lookup("port"))
	return cmd
}

func runServer(ctx context.Context, cfg config) error {
	store, closeStore, err := openAssignmentStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("assignment store setup failed: %w", err)
	}
	defer closeStore()

	runner := tasks.NewRunner(cfg.taskTimeout, slog.Default())
	responseCache := cache.NewMemory(cfg.cacheDefaultTTL)
	esvClient := esv.NewClient(cfg.esvAPIKey, cfg.esvBaseURL, &http.Client{Timeout: esvRequestTimeout}, responseCache, runner)

	readingPageHandler := rh.NewReadingPageHandler(store, esvClient, cfg.keyFormat, cfg.location)
	cacheWarmer := scheduler.New(store, esvClient, cfg.keyFormat, cfg.location, cfg.warmDays)
	router := api.SetupRoutes(readingPageHandler, cacheWarmer)

	if cfg.schedulerCron != "" {
		stopWarmer, err := cacheWarmer.Start(ctx, cfg.schedulerCron)
		if err != nil {
			return err
		}
		defer stopWarmer()
	}

	serveErr := startServer(ctx, cfg.port, router)

	drainCtx, cancel := context.WithTimeout(context.Background(), deferredDrainTimeout)
	defer cancel()
	if err := runner.Drain(drainCtx); err != nil {
		slog.Warn("Deferred tasks still running at exit", "error", err)
	}

	return serveErr
}

// openAssignmentStore returns the store selected by DB_DRIVER and a function
// that releases it.
func openAssignmentStore(ctx context.Context, cfg config) (rh.AssignmentStore, func(), error) {
	if cfg.dbDriver == driverStatic {
		slog.Info("Using the compiled-in 2021 reading plan", "assignments", len(readingplan.Plan2021))
		return datastore.StaticAssignments(readingplan.Plan2021), func() {}, nil
	}

	db, err := datastore.Open(cfg.dbDriver, cfg.databaseURL)
	if err != nil {
		return nil, nil, err
	}

	repo := datastore.NewAssignmentRepository(db, cfg.dbDriver)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	return repo, func() { db.Close() }, nil
}

func startServer(ctx context.Context, port string, router http.Handler) error {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: serverReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	slog.Info("Shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}

	slog.Info("Server gracefully stopped")
	return nil
}
