package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/momofof/genie-cart/internal/auth"
	"github.com/momofof/genie-cart/internal/config"
	"github.com/momofof/genie-cart/internal/event"
	handler "github.com/momofof/genie-cart/internal/handler/http"
	"github.com/momofof/genie-cart/internal/migrations"
	"github.com/momofof/genie-cart/internal/payment"
	pgrepo "github.com/momofof/genie-cart/internal/repository/postgres"
	redisrepo "github.com/momofof/genie-cart/internal/repository/redis"
	"github.com/momofof/genie-cart/internal/session"
	"github.com/momofof/genie-cart/pkg/database"
	"github.com/momofof/genie-cart/pkg/health"
	"github.com/momofof/genie-cart/pkg/httpclient"
	pkgkafka "github.com/momofof/genie-cart/pkg/kafka"
	"github.com/momofof/genie-cart/pkg/tracing"
)

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	pool    *pgxpool.Pool
	rdb     *redis.Client
	kafka   *pkgkafka.Producer
	watcher *auth.KafkaWatcher
	manager *session.Manager

	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tracing.
	tracingShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "cart-service",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampling,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// PostgreSQL pool and schema.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrations.Files, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// Redis.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))

	// Kafka producer and event plumbing.
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	eventProducer := event.NewProducer(kafkaProducer, logger)
	notifier := event.NewSyncNotifier(eventProducer, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Repositories and the session manager.
	localTTL := time.Duration(cfg.LocalCartTTL) * time.Hour
	remoteRepo := pgrepo.NewCartRepository(pool)
	localRepo := redisrepo.NewLocalCartRepository(rdb, localTTL)
	adapter := session.NewAdapter(remoteRepo, localRepo, notifier, logger)
	manager := session.NewManager(adapter, localRepo, eventProducer, logger, cfg.ReplayCooldown)

	// Auth transition feed.
	watcher := auth.NewKafkaWatcher(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, logger)

	// Payment verification.
	gatewayClient := payment.NewHTTPStatusClient(
		httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("payment-gateway"),
			logger,
		),
		cfg.GatewayBaseURL,
	)
	paymentService := payment.NewService(pgrepo.NewTransactionRepository(pool), gatewayClient, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	// HTTP router.
	router := handler.NewRouter(manager, paymentService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		pool:            pool,
		rdb:             rdb,
		kafka:           kafkaProducer,
		watcher:         watcher,
		manager:         manager,
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Run starts the HTTP server and the auth transition consumer, blocking
// until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		a.logger.Info("starting auth transition consumer",
			slog.String("topic", auth.TopicSessionChanged),
		)
		if err := a.watcher.Watch(ctx, a.manager.HandleSessionChange); err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("auth watcher: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.watcher.Close(); err != nil {
		a.logger.Error("auth watcher close error", slog.String("error", err.Error()))
	}

	if err := a.kafka.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
