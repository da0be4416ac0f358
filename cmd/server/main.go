package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/clearbill/gateway-mediator/internal/adapters/checkout"
	"github.com/clearbill/gateway-mediator/internal/adapters/platform"
	"github.com/clearbill/gateway-mediator/internal/adapters/postgres"
	"github.com/clearbill/gateway-mediator/internal/config"
	"github.com/clearbill/gateway-mediator/internal/domain/ports"
	paymentHandler "github.com/clearbill/gateway-mediator/internal/handlers/payment"
	webhookHandler "github.com/clearbill/gateway-mediator/internal/handlers/webhook"
	"github.com/clearbill/gateway-mediator/internal/services/mediator"
	"github.com/clearbill/gateway-mediator/internal/services/reconciler"
	"github.com/clearbill/gateway-mediator/pkg/httpclient"
	"github.com/clearbill/gateway-mediator/pkg/logging"
	"github.com/clearbill/gateway-mediator/pkg/observability"
	"github.com/clearbill/gateway-mediator/pkg/resilience"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := initZap(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	logger := logging.NewZapLogger(zapLogger)

	logger.Info("starting gateway mediator")

	if err := resolveDatabasePassword(cfg, logger); err != nil {
		zapLogger.Fatal("failed to resolve database password", zap.Error(err))
	}

	pool, err := initDatabase(cfg)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connection established")

	tenants, err := config.NewTenantResolver(cfg.Gateway.TenantsFile)
	if err != nil {
		zapLogger.Fatal("failed to load tenant configuration", zap.Error(err))
	}

	timeouts := resilience.DefaultTimeoutConfig()
	httpClient := httpclient.New(httpclient.GatewayConfig(), time.Duration(cfg.Gateway.Timeout)*time.Second)

	db := postgres.NewDBExecutor(pool)
	txRepo := postgres.NewTransactionRepository(db)
	pmRepo := postgres.NewPaymentMethodRepository(db)
	noteRepo := postgres.NewNotificationRepository(db)

	gateway := checkout.NewSessionAdapter(cfg.Gateway.BaseURL, httpClient, logger)
	orchestrator := mediator.NewOrchestrator(db, txRepo, pmRepo, gateway, tenants, logger, timeouts)

	var notifier ports.PlatformNotifier
	if url := os.Getenv("PLATFORM_CALLBACK_URL"); url != "" {
		notifier = platform.NewHTTPNotifier(url, httpClient, logger)
	}
	rec := reconciler.NewReconciler(db, txRepo, noteRepo, notifier, logger, timeouts)

	mux := http.NewServeMux()
	mux.Handle("/webhooks/notifications", webhookHandler.NewNotificationHandler(rec, logger, timeouts, os.Getenv(config.EnvHMACKey)))

	info := paymentHandler.NewInfoHandler(orchestrator, logger, timeouts)
	mux.HandleFunc("/payments", info.GetPaymentInfo)
	mux.HandleFunc("/transactions", info.GetTransaction)

	health := observability.NewHealthHandler(pool)
	mux.HandleFunc("/health/live", health.Live)
	mux.HandleFunc("/health/ready", health.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", ports.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed")
	}
	logger.Info("shutdown complete")
}

func initZap(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Logger.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func initDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
