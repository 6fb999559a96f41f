package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/efootballarena/backend/internal/api"
	"github.com/efootballarena/backend/internal/config"
	"github.com/efootballarena/backend/internal/database"
	"github.com/efootballarena/backend/internal/engine"
	"github.com/efootballarena/backend/internal/ledger"
	"github.com/efootballarena/backend/internal/migrations"
	"github.com/efootballarena/backend/internal/notify"
	"github.com/efootballarena/backend/internal/players"
	"github.com/efootballarena/backend/internal/redis"
	"github.com/efootballarena/backend/internal/settings"
	"github.com/efootballarena/backend/internal/store"
	"github.com/efootballarena/backend/internal/wallet"
	"github.com/efootballarena/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Wire services
	ledgerSvc := ledger.New(db)
	playersSvc := players.New(db, ledgerSvc, cfg)
	walletSvc := wallet.New(db, ledgerSvc, cfg)
	settingsSvc := settings.New(db)
	matchStore := store.New(db)
	notifier := notify.New(rdb)
	scheduler := engine.NewRedisScheduler(rdb)

	eng := engine.New(playersSvc, ledgerSvc, matchStore, scheduler, notifier, cfg)

	// Start the timeout worker that fires expired evidence windows
	go engine.StartTimeoutWorker(context.Background(), eng, rdb, cfg.TimeoutPollSeconds)

	// Bridge pub/sub events onto websocket clients
	hub := ws.NewHub()
	ws.StartEventSubscriber(context.Background(), hub, rdb)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	api.SetupRoutes(router, &api.Services{
		DB:       db,
		Cfg:      cfg,
		Engine:   eng,
		Players:  playersSvc,
		Ledger:   ledgerSvc,
		Wallet:   walletSvc,
		Settings: settingsSvc,
		Store:    matchStore,
		Hub:      hub,
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting eFootball Arena server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
