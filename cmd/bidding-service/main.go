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

	"property-bidding/internal/api/handlers"
	"property-bidding/internal/config"
	"property-bidding/internal/domain"
	"property-bidding/internal/infrastructure/memory"
	"property-bidding/internal/infrastructure/mysql"
	"property-bidding/internal/infrastructure/redis"
	"property-bidding/internal/services"
	"property-bidding/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting property bidding service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log.Info("Configuration loaded", "config", cfg.GetConfigString())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		ledger        domain.BidLedger
		catalog       domain.PropertyCatalog
		users         domain.UserDirectory
		notifications domain.NotificationStore
		outboxRepo    domain.OutboxRepository
		locker        domain.ListingLocker
		leaderCache   domain.LeaderCache
		eventPub      domain.EventPublisher
	)

	if cfg.Storage.Driver == "memory" {
		// Single-process mode for local development, no MySQL or Redis.
		store := memory.NewStore()
		store.AddUser(&domain.User{ID: "user-alice", Name: "Alice"})
		store.AddUser(&domain.User{ID: "user-bob", Name: "Bob"})
		log.Info("Memory storage seeded with demo users", "user_ids", []string{"user-alice", "user-bob"})

		ledger = store
		catalog = store
		users = store
		notifications = store
		outboxRepo = store
		locker = memory.NewLocker(time.Duration(cfg.Lock.Attempts) * cfg.Lock.Backoff)
	} else {
		// Run schema migrations before taking traffic
		if err := mysql.RunMigrations(cfg.MySQL); err != nil {
			log.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}

		db, err := mysql.Open(cfg.MySQL)
		if err != nil {
			log.Error("Failed to connect to MySQL", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close MySQL connection", "error", err)
			}
		}()

		if err := db.PingContext(ctx); err != nil {
			log.Error("Failed to ping MySQL", "error", err)
			os.Exit(1)
		}
		log.Info("Connected to MySQL")

		rdb := redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("Connected to Redis", "address", cfg.Redis.Address)

		ledger = mysql.NewMySQLBidLedger(db)
		catalog = mysql.NewMySQLPropertyCatalog(db)
		users = mysql.NewMySQLUserDirectory(db)
		notifications = mysql.NewMySQLNotificationStore(db)
		outboxRepo = mysql.NewMySQLOutboxRepository(db)
		locker = redis.NewListingLock(rdb, cfg.Lock.TTL, cfg.Lock.Attempts, cfg.Lock.Backoff)
		leaderCache = redis.NewLeaderCache(rdb, cfg.Cache.LeaderTTL)
		eventPub = redis.NewEventPublisher(rdb)
	}

	// Core services
	relay := services.NewOutboxRelay(outboxRepo, notifications, cfg.Outbox.BatchSize, log)

	placement := services.NewBidPlacementService(ledger, catalog, users, locker, log)
	placement.SetOutboxRelay(relay)
	if leaderCache != nil {
		placement.SetLeaderCache(leaderCache)
	}
	if eventPub != nil {
		placement.SetEventPublisher(eventPub)
	}

	resolver := services.NewHighestBidResolver(ledger, log)
	if leaderCache != nil {
		resolver.SetLeaderCache(leaderCache)
	}

	if err := relay.Start(cfg.Outbox.SweepInterval); err != nil {
		log.Error("Failed to start outbox relay", "error", err)
		os.Exit(1)
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize handlers
	listingHandler := handlers.NewListingHandler(catalog, resolver, log)
	bidHandler := handlers.NewBidHandler(placement, ledger, catalog, log)
	notificationHandler := handlers.NewNotificationHandler(notifications, log)

	// API routes
	api := e.Group("/api/v1")
	api.POST("/listings", listingHandler.CreateListing)
	api.GET("/listings/:id/bid-overview", listingHandler.BidOverview)
	api.POST("/listings/:id/bids", bidHandler.PlaceBid)
	api.GET("/listings/:id/bids", bidHandler.BidHistory)
	api.GET("/users/:id/notifications", notificationHandler.Notifications)

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "property-bidding",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting bidding server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down property bidding service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	relay.Stop()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Property bidding service stopped")
}
