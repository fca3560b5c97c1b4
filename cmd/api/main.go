package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facet-inventory-api/internal/cache"
	"facet-inventory-api/internal/config"
	"facet-inventory-api/internal/handler"
	"facet-inventory-api/internal/inventory"
	"facet-inventory-api/internal/middleware"
	"facet-inventory-api/internal/model"
	"facet-inventory-api/internal/repository"
	"facet-inventory-api/internal/router"
	"facet-inventory-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Facet Inventory API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize snapshot repository based on config
	var snapshotRepo repository.SnapshotRepository
	var eventLogRepo repository.EventLogRepository
	switch cfg.StockDB.Type {
	case "mongodb", "mongo":
		mongoRepo, err := repository.NewMongoSnapshotRepository(
			cfg.StockDB.MongoURI,
			cfg.StockDB.MongoDatabase,
			cfg.StockDB.MongoCollection,
		)
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB: %v", err)
		}
		defer mongoRepo.Close()
		snapshotRepo = mongoRepo
		log.Println("MongoDB snapshot repository initialized")
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresSnapshotRepository(cfg.StockDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		snapshotRepo = pgRepo
		log.Println("PostgreSQL snapshot repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteSnapshotRepository(cfg.StockDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		snapshotRepo = sqliteRepo
		log.Println("SQLite snapshot repository initialized")
	}

	// Audit log rides on Mongo when a URI is configured (optional)
	if cfg.StockDB.MongoURI != "" {
		eventLog, err := repository.NewMongoEventLogRepository(
			cfg.StockDB.MongoURI,
			cfg.StockDB.MongoDatabase,
			cfg.StockDB.MongoEventLog,
		)
		if err != nil {
			log.Printf("Warning: event log initialization failed: %v", err)
		} else {
			defer eventLog.Close()
			eventLogRepo = eventLog
			log.Println("MongoDB event log initialized")
		}
	}

	// Initialize MySQL connection for client accounts (optional)
	var err error
	var mysqlDB *sql.DB
	var accountRepo *repository.MySQLAccountRepository

	mysqlDSN := cfg.Database.DSN()
	mysqlDB, err = sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Printf("Warning: MySQL connection failed: %v", err)
	} else {
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := mysqlDB.Ping(); err != nil {
			log.Printf("Warning: MySQL ping failed: %v", err)
			mysqlDB.Close()
			mysqlDB = nil
		} else {
			accountRepo = repository.NewMySQLAccountRepository(mysqlDB)
			log.Println("MySQL account repository initialized")
		}
	}
	if mysqlDB != nil {
		defer mysqlDB.Close()
	}

	// Initialize Redis client
	redisAddr := cfg.Cache.RedisAddress()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()

	// Initialize Redis snapshot buffer (write-behind persistence)
	var redisBuffer *cache.RedisSnapshotBuffer
	if redisClient != nil {
		bufferCfg := cache.RedisBufferConfig{
			Addr:          redisAddr,
			Password:      cfg.Cache.RedisPassword,
			DB:            cfg.Cache.RedisDB,
			FlushInterval: cfg.Cache.FlushInterval,
		}
		flushFunc := service.CreateFlushFunc(snapshotRepo)
		redisBuffer, err = cache.NewRedisSnapshotBuffer(bufferCfg, flushFunc)
		if err != nil {
			log.Printf("Warning: Redis buffer initialization failed: %v", err)
		} else {
			log.Println("Redis snapshot buffer initialized")
		}
	}

	// Initialize the inventory manager
	manager := inventory.NewManager(inventory.Config{
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		CartHoldTTL:       cfg.Inventory.CartHoldTTL,
		CheckoutHoldTTL:   cfg.Inventory.CheckoutHoldTTL,
	})

	// Warm start: seed the manager from persisted rows so reads work
	// before the first feed batch arrives
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if recs, err := snapshotRepo.ListSnapshots(warmCtx); err != nil {
		log.Printf("Warning: warm start failed: %v", err)
	} else if len(recs) > 0 {
		updates := make([]model.SnapshotUpdate, 0, len(recs))
		for _, rec := range recs {
			reserved := rec.Reserved
			updates = append(updates, model.SnapshotUpdate{
				ProductID: rec.ProductID,
				Quantity:  rec.Quantity,
				Reserved:  &reserved,
			})
		}
		manager.LoadInitialInventory(updates)
		log.Printf("Warm start: loaded %d snapshots", len(recs))
	}
	warmCancel()

	// Persister funnels manager events into storage
	persister := service.NewSnapshotPersister(manager.Events(), snapshotRepo, redisBuffer, eventLogRepo)
	persister.Start()

	// Sweeper releases expired reservations and prunes stale rows
	sweeper := service.NewSweeper(manager, snapshotRepo, service.SweeperConfig{
		SweepInterval:  cfg.Inventory.SweepInterval,
		StaleThreshold: cfg.Inventory.StaleThreshold,
	})
	sweeper.Start()

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	}

	// Response cache for the full stock list
	respCache := cache.NewMemoryCache()
	defer respCache.Close()

	// Initialize handlers
	healthHandler := handler.New(manager, cfg.App.Version)
	stockHandler := handler.NewStockHandler(manager, respCache, cfg.Cache.ResponseTTL)
	streamHandler := handler.NewStreamHandler(manager)
	adminHandler := handler.NewAdminHandler(manager, redisBuffer, snapshotRepo, eventLogRepo, cfg.StockDB.Type)

	var authHandler *handler.AuthHandler
	if tokenService != nil && accountRepo != nil {
		authHandler = handler.NewAuthHandler(tokenService, accountRepo)
	}

	// Create auth middleware with injected dependencies (NO GLOBALS!)
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:        healthHandler,
		StockHandler:   stockHandler,
		StreamHandler:  streamHandler,
		AdminHandler:   adminHandler,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	sweeper.Stop()
	persister.Stop()

	// Close Redis buffer first (flushes pending data)
	if redisBuffer != nil {
		log.Println("Closing Redis buffer...")
		redisBuffer.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
