package main

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

	"github.com/kailas-cloud/assessmatch/internal/metrics"
	"github.com/kailas-cloud/assessmatch/internal/tracer"
	"github.com/kailas-cloud/assessmatch/internal/version"
	assessmatch "github.com/kailas-cloud/assessmatch/pkg/sdk"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port, overrides http.port")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, port int) error {
	cfg, path, err := root.loadConfig()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.HTTP.Port = port
	}

	logger, err := root.newLogger(cfg, "info")
	if err != nil {
		return err
	}
	defer syncLogger(logger)

	logger.Info("Starting assessmatch",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("config", path),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRecommendMetrics()

	shutdownTracing, err := tracer.Init(ctx, cfg.Tracing, version.Version, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error("Tracer shutdown failed", zap.Error(err))
		}
	}()

	client, err := assessmatch.New(ctx,
		root.sdkOptions(path, cfg, logger, assessmatch.WithPrometheus(prometheus.DefaultRegisterer))...)
	if err != nil {
		return fmt.Errorf("build recommendation engine: %w", err)
	}
	defer client.Close()

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      client.Handler(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr), zap.Int("assessments", client.Size()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
