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

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/handler"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/service"
	"github.com/flicky/go-storefront/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))

	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	if cfg.DB.AutoMigrate {
		if err := repository.Migrate(ctx, dbPool); err != nil {
			log.Error("run migrations", "error", err)
			os.Exit(1)
		}
		log.Info("database migrated")
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	// Publishing and consuming use separate channels so a slow consumer
	// never blocks checkout.
	publishCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer publishCh.Close()

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer consumeCh.Close()

	if err := worker.SetupRabbitMQ(consumeCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	store := repository.NewStore(dbPool)

	// Services
	authSvc := service.NewAuthService(store, log)
	sessionSvc := service.NewSessionService(store, cfg.Session.TTL, log)
	cartSvc := service.NewCartService(store)
	orderSvc := service.NewOrderService(store, publishCh, log)
	addressSvc := service.NewAddressService(store)
	historySvc := service.NewHistoryService(store)
	catalogSvc := service.NewCatalogService(store, redisClient, cfg.Catalog.CacheTTL, log)
	adminSvc := service.NewAdminService(store)

	// Worker
	orderWorker := worker.NewOrderWorker(consumeCh, store, worker.NewRedisIdempotency(redisClient), log)

	router, err := handler.NewRouter(handler.Handlers{
		Auth:    handler.NewAuthHandler(authSvc, sessionSvc),
		Cart:    handler.NewCartHandler(cartSvc),
		Address: handler.NewAddressHandler(addressSvc),
		History: handler.NewHistoryHandler(historySvc),
		Order:   handler.NewOrderHandler(orderSvc),
		Product: handler.NewProductHandler(catalogSvc),
		Admin:   handler.NewAdminHandler(adminSvc, orderSvc),
		Health: handler.NewHealthHandler(
			handler.Dependency{Name: "postgres", Ping: dbPool.Ping},
			handler.Dependency{Name: "redis", Ping: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}},
			handler.Dependency{Name: "rabbitmq", Ping: func(context.Context) error {
				if amqpConn.IsClosed() {
					return amqp.ErrClosed
				}
				return nil
			}},
		),
	}, sessionSvc, cfg.Server.TrustedProxies, log)
	if err != nil {
		log.Error("build router", "error", err)
		os.Exit(1)
	}

	if err := orderWorker.Start(ctx); err != nil {
		log.Error("start order worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	orderWorker.Stop()
	cancel()
	log.Info("server stopped")
}
