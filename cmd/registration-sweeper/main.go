package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/config"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/messaging"
	"github.com/bomac1193/Issuance/internal/metrics"
	"github.com/bomac1193/Issuance/internal/providers/jetstream"
	"github.com/bomac1193/Issuance/internal/registrar"
	"github.com/bomac1193/Issuance/internal/registration"
	"github.com/bomac1193/Issuance/internal/store"
	"github.com/bomac1193/Issuance/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": sweeper.REGISTRATION_SWEEPER_NAME,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting registration sweeper")

	// Connect to database
	db, err := store.Open(cfg.Database, cfg.Debug)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("driver", cfg.Database.Driver))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.String("driver", cfg.Database.Driver),
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
	)

	// Initialize store
	dataStore := store.New(db)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// Initialize metrics
	var registry prometheus.Registerer
	if cfg.Metrics.Enabled {
		registry = prometheus.DefaultRegisterer
	}
	m := metrics.New(registry)

	// Connect to NATS when configured, otherwise events are dropped
	publisher := messaging.NewNoopPublisher()
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		logger.InfoCtx(ctx, "Connected to NATS JetStream", zap.String("stream", cfg.NATS.StreamName))
	}
	defer publisher.Close()

	// Connect to the registry chain
	reg, err := registrar.Dial(ctx, cfg.Registrar, adapter.NewEthClientDialer())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to registrar", zap.Error(err), zap.String("contract", cfg.Registrar.ContractAddress))
	}
	defer reg.Close()
	logger.InfoCtx(ctx, "Connected to registrar",
		zap.String("contract", cfg.Registrar.ContractAddress),
		zap.String("sender", reg.Address().Hex()),
	)

	dispatcher, err := registration.NewDispatcher(registration.ConfigFrom(cfg.Registration), dataStore, reg, publisher, clock, m)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create registration dispatcher", zap.Error(err))
	}

	// Serve metrics
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.ErrorCtx(ctx, fmt.Errorf("metrics server: %w", err))
			}
		}()
		logger.InfoCtx(ctx, "Serving prometheus metrics", zap.String("address", cfg.Metrics.ListenAddress))
	}

	// Initialize registration sweeper
	sweeperConfig := sweeper.RegistrationSweeperConfigFrom(cfg.RegistrationSweeper)
	registrationSweeper := sweeper.NewRegistrationSweeper(sweeperConfig, dataStore, dispatcher, clock)

	logger.InfoCtx(ctx, "Initialized registration sweeper",
		zap.Int("batch_size", sweeperConfig.BatchSize),
		zap.Int("worker_pool_size", sweeperConfig.WorkerPoolSize),
		zap.Duration("interval", sweeperConfig.Interval),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := registrationSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Cancel context to stop the sweeper
	cancel()

	// Give the sweeper time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := registrationSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}
	dispatcher.Wait()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorCtx(shutdownCtx, err)
		}
	}

	logger.InfoCtx(shutdownCtx, "Registration sweeper stopped")
}
