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

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/handoff"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/inventory"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "shopper cart, checkout and order cancellation API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the outbox poller",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply Postgres migrations and create Mongo indexes",
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("storefront failed")
	}
}

func credentials(cfg *config.Config) *repository.Credentials {
	return &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
}

func migrate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogJSON)

	creds := credentials(cfg)
	pg, err := repository.NewRepository(creds)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.RunMigrations(creds); err != nil {
		return err
	}
	log.Info("postgres migrations applied")

	mongoDB, err := repository.ConnectMongoDB(c.Context, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer mongoDB.Client().Disconnect(context.Background())
	if err := repository.NewMongoCartRepository(mongoDB).CreateIndexes(c.Context); err != nil {
		return err
	}
	log.Info("mongo indexes created")
	return nil
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres: orders, inventory, outbox
	creds := credentials(cfg)
	pg, err := repository.NewRepository(creds)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.RunMigrations(creds); err != nil {
		return err
	}
	log.WithField("host", cfg.DBHost).Info("connected to postgres")

	// Mongo: signed-in carts
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer mongoDB.Client().Disconnect(context.Background())
	cartRepo := repository.NewMongoCartRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		return err
	}
	log.WithField("uri", cfg.MongoURI).Info("connected to mongo")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	cartCache := cache.NewRedisCache(redisClient, cfg.CartCacheTTL)

	sfg := &singleflight.Group{}
	remote := func(userID string) cart.Strategy {
		return cart.NewRemoteStrategy(userID, cartRepo, cartCache, sfg, log)
	}
	sessions := h.NewSessionRegistry(func() *cart.Session {
		return cart.NewSession(cartRepo, remote, log)
	}, cfg.SessionIdleTTL, cfg.MaxSessions, log)
	defer sessions.Close()

	var prober handoff.Prober
	if cfg.MessengerProbe != "" {
		prober = handoff.NewHTTPProber(cfg.MessengerProbe, cfg.HandoffTimeout, log)
	}
	handoffService := handoff.NewService(cfg.MessengerBaseURL, cfg.ShopPhone, prober, log)

	stock, err := inventory.SelectBackend(cfg.InventoryBackend, pg, inventory.Seed{
		Variants: cfg.VariantStock,
		Combos:   cfg.ComboStock,
	})
	if err != nil {
		return err
	}
	if cfg.InventoryBackend == inventory.BackendMemory {
		log.Warn("inventory kept in memory, stock resets on restart")
	}
	adjuster := inventory.NewAdjuster(stock, pg, log)
	orchestrator := checkout.NewOrchestrator(pg, pg, adjuster, handoffService,
		checkout.Config{DeliveryCost: cfg.DeliveryCost, Currency: cfg.Currency}, log)
	canceller := checkout.NewCanceller(pg, log)

	poller := publisher.NewOutboxPoller(pg, adjuster, cfg.OrdersTopic, cfg.OutboxTick, cfg.OutboxMaxAttempt, log, cfg.KafkaBrokers...)
	defer poller.Close()
	go poller.Run(ctx)
	go sessions.Run(ctx, time.Minute)

	router := h.NewRouter(h.RouterDeps{
		Sessions:       sessions,
		Verifier:       h.NewTokenVerifier(cfg.JWTSecret),
		Placer:         orchestrator,
		Orders:         canceller,
		RequestTimeout: cfg.RequestTimeout,
		Log:            log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
