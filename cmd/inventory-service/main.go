package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/api"
	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/application"
	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/config"
	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/infrastructure/catalog"
	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/infrastructure/db"
	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/infrastructure/memory"
	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/infrastructure/messaging"
	outboxinfra "github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/infrastructure/outbox"
	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/observability"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown, otelErr := observability.Setup(ctx, cfg)
	logger := observability.NewLogger(zapcore.InfoLevel)
	defer logger.Sync()
	if otelErr != nil {
		logger.Error("OpenTelemetry setup incomplete", zap.Error(otelErr))
	}

	logger.Info("starting inventory service",
		zap.String("port", cfg.HttpPort),
		zap.String("store", cfg.StoreBackend),
		zap.String("broker", cfg.EventBroker))

	// Store
	var (
		inventoryRepo domain.InventoryRepository
		outboxRepo    domain.OutboxRepository
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		dbConn, err := sql.Open("pgx", cfg.PgDsn)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		defer dbConn.Close()
		if err := dbConn.PingContext(ctx); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		if err := db.EnsureSchema(ctx, dbConn); err != nil {
			logger.Fatal("failed to prepare schema", zap.Error(err))
		}
		inventoryRepo = db.NewPgInventoryRepository(dbConn)
		outboxRepo = db.NewPgOutboxRepository(dbConn)
	default:
		inventoryRepo = memory.NewLedger()
		outboxRepo = memory.NewOutboxRepository()
	}

	// Catalog
	var catalogClient domain.CatalogClient = catalog.NewHTTPClient(cfg.CatalogBaseURL, cfg.CatalogTimeout, logger)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, catalog cache will fall through", zap.Error(err))
		}
		catalogClient = catalog.NewCachedClient(catalogClient, redisClient, cfg.CatalogCacheTTL, logger)
	}

	// Outbox writer + dispatcher + scheduler
	var publisher outboxinfra.Publisher
	switch cfg.EventBroker {
	case config.BrokerRabbitMQ:
		publisher = messaging.NewBusPublisher(messaging.NewInventoryProducer(cfg.RabbitUri))
	case config.BrokerKafka:
		kafkaPublisher := messaging.NewKafkaPublisher(messaging.NewKafkaWriter(cfg.KafkaBroker, cfg.KafkaTopic))
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	default:
		publisher = messaging.NewLogPublisher(logger)
	}

	outboxWriter := application.NewOutboxWriter(outboxRepo)
	dispatcher := outboxinfra.NewDispatcher(outboxRepo, publisher, logger, cfg.OutboxMaxRetry, cfg.OutboxBatchSize)
	scheduler := outboxinfra.NewScheduler(dispatcher, time.Duration(cfg.OutboxIntervalSec)*time.Second, logger)
	scheduler.Start(ctx)

	// Application service
	inventorySvc := application.NewInventoryService(inventoryRepo, catalogClient, outboxWriter, logger, cfg.CatalogTimeout)

	// Catalog events
	if cfg.EventBroker == config.BrokerRabbitMQ {
		catalogBus := messaging.NewCatalogConsumer(cfg.RabbitUri, "inventory.catalog-events.v1")
		productCreatedHandler := application.NewProductCreatedHandler(inventorySvc, logger)
		if err := messaging.RegisterCatalogSubscriptions(ctx, catalogBus, productCreatedHandler, logger); err != nil {
			logger.Fatal("failed to start catalog subscriptions", zap.Error(err))
		}
	}

	// HTTP API
	apiServer := api.NewServer(inventorySvc, logger)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.HttpPort,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down inventory service", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}
	cancel()
	scheduler.Wait()

	if err := otelShutdown(shutdownCtx); err != nil {
		logger.Error("OpenTelemetry shutdown error", zap.Error(err))
	}
}
