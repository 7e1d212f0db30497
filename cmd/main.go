/**
 * @description
 * This is the main entry point for the service. It initializes all components:
 * configuration, the PostgreSQL primary store, the MongoDB mirror, the RabbitMQ
 * producer and consumer, the optional Redis rate limiter, the metrics collector,
 * and the HTTP server. It wires everything together, starts the background workers
 * (mirror sync and outbox relay), and shuts down gracefully on SIGINT/SIGTERM.
 *
 * @dependencies
 * - log/slog, net/http, os/signal: Standard Go libraries.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - go.mongodb.org/mongo-driver: MongoDB driver for the mirror store.
 * - github.com/rabbitmq/amqp091-go (via pkg/rabbitmq): Event broker client.
 * - github.com/redis/go-redis/v9: Rate limiter backend.
 */

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fabriciomarote/capacitacion/internal/api"
	"github.com/fabriciomarote/capacitacion/internal/app"
	"github.com/fabriciomarote/capacitacion/internal/config"
	"github.com/fabriciomarote/capacitacion/internal/domain"
	"github.com/fabriciomarote/capacitacion/internal/metrics"
	"github.com/fabriciomarote/capacitacion/internal/mirror"
	"github.com/fabriciomarote/capacitacion/internal/store"
	"github.com/fabriciomarote/capacitacion/pkg/branchclient"
	"github.com/fabriciomarote/capacitacion/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Error("DATABASE_URL must be configured")
		os.Exit(1)
	}

	logger.Info("starting capacitacion service", "port", cfg.ServerPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Primary store: PostgreSQL connection pool.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("database url parse failed", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connected")

	collector := metrics.NewCollector()
	repository := store.NewPostgresRepository(dbpool)
	if err := repository.EnsureSchema(ctx); err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	// Mirror store: MongoDB, best effort. The service runs without it.
	var mirrorSync *mirror.Sync
	if strings.TrimSpace(cfg.MongoURL) != "" {
		mongoCtx, cancelMongo := context.WithTimeout(ctx, 10*time.Second)
		mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.MongoURL))
		cancelMongo()
		if err != nil {
			logger.Warn("mongo connection failed; mirror disabled", "error", err)
		} else {
			defer mongoClient.Disconnect(context.Background())
			mongoMirror := mirror.NewMongoMirror(
				mongoClient.Database(cfg.MongoDatabase),
				time.Duration(cfg.MirrorTimeoutMS)*time.Millisecond,
			)
			mirrorSync = mirror.NewSync(mongoMirror, logger,
				mirror.WithQueueSize(cfg.MirrorQueueSize),
				mirror.WithRetryDelay(time.Duration(cfg.MirrorRetryDelayMS)*time.Millisecond),
				mirror.WithMaxRetries(cfg.MirrorMaxRetries),
				mirror.WithRetryHook(collector.RecordMirrorRetry),
			)
			go mirrorSync.Run(ctx)
			logger.Info("mirror store connected", "database", cfg.MongoDatabase)
		}
	} else {
		logger.Warn("MONGO_URL missing; mirror replication disabled")
	}

	// Event broker: producer with logging fallback when unavailable at startup.
	var publisher rabbitmq.Publisher
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.EventExchange)
	if err != nil {
		logger.Warn("rabbitmq producer unavailable; using fallback", "error", err)
		publisher = &rabbitmq.FallbackPublisher{Logger: logger}
	} else {
		defer producer.Close()
		publisher = producer
		logger.Info("rabbitmq producer connected", "exchange", cfg.EventExchange)
	}

	// Redis-backed transfer rate limiter, optional.
	var limiter *app.RedisRateLimiter
	if cfg.TransferRateLimitPerMinute > 0 {
		if cfg.RedisURL == "" {
			logger.Warn("REDIS_URL missing; transfer rate limiting disabled")
		} else if redisOptions, parseErr := redis.ParseURL(cfg.RedisURL); parseErr != nil {
			logger.Warn("redis url parse failed; transfer rate limiting disabled", "error", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
			pingErr := redisClient.Ping(pingCtx).Err()
			cancelPing()
			if pingErr != nil {
				logger.Warn("redis ping failed; transfer rate limiting disabled", "error", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				limiter = app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
				logger.Info("redis connected")
			}
		}
	}

	var mirrorDep app.MirrorSync
	if mirrorSync != nil {
		mirrorDep = mirrorSync
	}
	service := app.NewService(repository, mirrorDep, collector, logger)

	// Outbox relay publishes committed events to the broker.
	relay := app.NewOutboxRelay(
		repository, publisher, cfg.EventExchange,
		time.Duration(cfg.OutboxPollIntervalMS)*time.Millisecond,
		cfg.OutboxBatchSize, collector, logger,
	)
	go relay.Run(ctx)

	// Downstream consumers: address enrichment and transfer notification.
	var branches app.BranchDirectory
	if cfg.BranchDirectoryURL != "" {
		branches = branchclient.NewClient(cfg.BranchDirectoryURL)
	} else {
		logger.Warn("BRANCH_DIRECTORY_URL missing; address enrichment disabled")
	}
	eventConsumer := app.NewEventConsumer(service, branches, nil, logger)
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("rabbitmq consumer unavailable; downstream listeners disabled", "error", err)
	} else {
		defer consumer.Close()
		err = consumer.ConsumeWithBindings(cfg.EventExchange, cfg.ConsumerQueue, map[string]func([]byte) bool{
			domain.RoutingKeyAccountCreated:     eventConsumer.HandleAccountCreated,
			domain.RoutingKeyTransactionCreated: eventConsumer.HandleTransactionCreated,
		})
		if err != nil {
			logger.Warn("failed to start consumer bindings", "error", err)
		} else {
			logger.Info("event consumers started", "queue", cfg.ConsumerQueue)
		}
	}

	handlers := api.NewHandlers(service, logger)
	router := api.Routes(handlers, limiter, cfg.TransferRateLimitPerMinute, collector.Handler(), logger)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
}
