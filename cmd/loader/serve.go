package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dvloznov/dataset-loader/internal/api/handlers"
	"github.com/dvloznov/dataset-loader/internal/jobs"
	"github.com/dvloznov/dataset-loader/internal/jobs/inmemory"
	"github.com/dvloznov/dataset-loader/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run load jobs in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().Int("port", 0, "HTTP server port (default from config)")
	cmd.Flags().Int("workers", 0, "Number of concurrent load workers (default from config)")
	a.bindFlag("server.port", cmd.Flags().Lookup("port"))
	a.bindFlag("jobs.workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func (a *app) serve(ctx context.Context) error {
	s := a.settings
	log := a.log

	b, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer a.closeBackend(b)

	registry := prometheus.NewRegistry()
	m, err := metrics.NewIngestMetrics(registry)
	if err != nil {
		return err
	}

	loader := a.newLoader(b, m)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore(s.Jobs.Retention)
	jobQueue := inmemory.NewQueue(s.Jobs.Buffer, s.Jobs.Workers, jobStore).WithMetrics(m)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, jobs.NewLoadHandler(loader, jobs.NewNamedLocks())); err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Publisher:       jobQueue,
		Store:           jobStore,
		Catalog:         b.catalog,
		DefaultDatabase: s.Catalog.DefaultDatabase,
		Gatherer:        registry,
		Log:             log,
	})

	port := strconv.Itoa(s.Server.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
	return nil
}
