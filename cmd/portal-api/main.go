package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medvault/patient-portal/internal/app/bootstrap"
	appconfig "github.com/medvault/patient-portal/internal/config"
	"github.com/medvault/patient-portal/internal/observability/metrics"
	"github.com/medvault/patient-portal/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medvault patient portal API",
		"env", cfg.Env,
		"port", cfg.Port,
		"backend", cfg.PortalAPIBaseURL,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	metricsHandler, portalMetrics := setupMetrics()
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	portal, err := bootstrap.BuildPortal(cfg, redisClient, logger, portalMetrics)
	if err != nil {
		logger.Error("failed to wire portal", "error", err)
		os.Exit(1)
	}

	background := make(chan error, 1)
	go func() { background <- portal.RunBackground(ctx, time.Minute) }()

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      portal.Router(metricsHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if err := <-background; err != nil {
		logger.Warn("background sweepers stopped with error", "error", err)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers portal metrics on a dedicated registry and returns
// the /metrics handler for it.
func setupMetrics() (http.Handler, *metrics.PortalMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	portalMetrics := metrics.NewPortalMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), portalMetrics
}
