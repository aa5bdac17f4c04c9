package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/cache"
	"github.com/junaidrashid-git/storefront-api/config"
	"github.com/junaidrashid-git/storefront-api/database"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/logger"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/realtime"
	"github.com/junaidrashid-git/storefront-api/repository"
	"github.com/junaidrashid-git/storefront-api/routes"
	"github.com/junaidrashid-git/storefront-api/services"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("❌ Failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	log.Info().Str("env", cfg.AppEnv).Msg("✅ Starting application...")

	// Init DB
	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ DB connection failed")
	}
	defer database.Close(db)

	// Auto-migrate all tables
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("❌ AutoMigrate failed")
	}

	cartCache := initCache(cfg, log)
	publisher := initPublisher(cfg, log)
	defer publisher.Close()

	hub := realtime.NewHub(log)
	defer hub.Close()

	repo := repository.New(db, cfg.LockRows())
	catalog := services.NewCatalogService(repo, cartCache, publisher, log)
	carts := services.NewCartService(repo, cartCache, publisher, hub, log)

	// Gin setup
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log), middleware.Recover(log))

	// Allow spreadsheet uploads up to 32 MB in memory
	r.MaxMultipartMemory = 32 << 20

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Location", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Setup routes
	routes.SetupRoutes(r, routes.Dependencies{DB: db, Catalog: catalog, Cart: carts, Live: hub})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Port).Str("stock_check", cfg.StockCheck).Msg("🚀 Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("❌ Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("❌ Graceful shutdown failed")
	}
}

// initCache returns the Redis summary cache, or a no-op cache when Redis is
// not configured or not reachable at startup.
func initCache(cfg *config.Config, log zerolog.Logger) cache.CartCache {
	if cfg.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR not set, cart summaries are not cached")
		return cache.Noop{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("⚠️ Redis unreachable, cart summaries are not cached")
		client.Close()
		return cache.Noop{}
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("✅ Redis cart cache enabled")
	return cache.NewRedisCache(client)
}

// initPublisher returns the Kafka event publisher, or a no-op one when no
// brokers are configured.
func initPublisher(cfg *config.Config, log zerolog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info().Msg("KAFKA_BROKERS not set, domain events are dropped")
		return events.Noop{}
	}
	log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic_prefix", cfg.KafkaTopicPrefix).Msg("✅ Kafka event publishing enabled")
	return events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers), cfg.KafkaTopicPrefix, log)
}
