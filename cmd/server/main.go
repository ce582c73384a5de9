package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/agoramesh/walletd/internal/adapter/http"
	"github.com/agoramesh/walletd/internal/adapter/http/handler"
	postgresRepo "github.com/agoramesh/walletd/internal/adapter/repository/postgres"
	redisRepo "github.com/agoramesh/walletd/internal/adapter/repository/redis"
	"github.com/agoramesh/walletd/internal/infrastructure/config"
	"github.com/agoramesh/walletd/internal/infrastructure/eventpublisher"
	"github.com/agoramesh/walletd/internal/infrastructure/logger"
	"github.com/agoramesh/walletd/internal/infrastructure/metrics"
	"github.com/agoramesh/walletd/internal/infrastructure/postgres"
	"github.com/agoramesh/walletd/internal/infrastructure/redis"
	"github.com/agoramesh/walletd/internal/usecase"
)

func main() {
	// .env is optional, real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger
	zerolog.SetGlobalLevel(appLogger.GetLevel())

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	escrowRepo := postgresRepo.NewEscrowRepository(pool)
	orgRepo := postgresRepo.NewOrganizationRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()

	// Use cases
	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, txnRepo, outboxRepo, auditRepo, idGen, retrier, m)
	feePolicyUC := usecase.NewFeePolicyUseCase(orgRepo, cache, cfg.PlatformFeeBPS, m)
	escrowUC := usecase.NewEscrowUseCase(usecase.EscrowConfig{
		TxManager:     txManager,
		Ledger:        walletUC,
		WalletRepo:    walletRepo,
		EscrowRepo:    escrowRepo,
		OutboxRepo:    outboxRepo,
		AuditRepo:     auditRepo,
		FeeResolver:   feePolicyUC,
		IDGen:         idGen,
		Retrier:       retrier,
		Metrics:       m,
		PlatformOrgID: cfg.PlatformOrgID,
	})
	orgUC := usecase.NewOrganizationUseCase(orgRepo, idGen)
	reconUC := usecase.NewReconciliationUseCase(walletRepo, ledgerRepo)

	// Handlers
	walletHandler := handler.NewWalletHandler(walletUC)
	escrowHandler := handler.NewEscrowHandler(escrowUC)
	orgHandler := handler.NewOrganizationHandler(orgUC)
	reconHandler := handler.NewReconciliationHandler(reconUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:         walletHandler,
		EscrowHandler:         escrowHandler,
		OrganizationHandler:   orgHandler,
		ReconciliationHandler: reconHandler,
		HealthHandler:         healthHandler,
		IdempotencyStore:      idempotencyStore,
		Logger:                appLogger,
		RateLimitRPS:          cfg.RateLimitRPS,
		RateLimitBurst:        cfg.RateLimitBurst,
	})

	// Outbox publisher worker
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(nil),
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
