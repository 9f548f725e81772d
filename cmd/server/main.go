package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	identityapp "github.com/stocktrail/backend/internal/application/identity"
	inventoryapp "github.com/stocktrail/backend/internal/application/inventory"
	"github.com/stocktrail/backend/internal/application/scan"
	"github.com/stocktrail/backend/internal/domain/shared"
	"github.com/stocktrail/backend/internal/infrastructure/auth"
	"github.com/stocktrail/backend/internal/infrastructure/cache"
	"github.com/stocktrail/backend/internal/infrastructure/config"
	"github.com/stocktrail/backend/internal/infrastructure/event"
	"github.com/stocktrail/backend/internal/infrastructure/logger"
	"github.com/stocktrail/backend/internal/infrastructure/persistence"
	"github.com/stocktrail/backend/internal/interfaces/http/handler"
	"github.com/stocktrail/backend/internal/interfaces/http/middleware"
	"github.com/stocktrail/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting StockTrail Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, gormlogger.Warn)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	entryRepo := persistence.NewGormStockEntryRepository(db.DB)
	departureRepo := persistence.NewGormDepartureRecordRepository(db.DB)
	operatorRepo := persistence.NewGormOperatorRepository(db.DB)

	// Redis backs cross-instance change notifications and scan dedupe.
	// Without it the server still runs, scoped to a single instance.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisAvailable := true
	{
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unreachable, running single-instance", zap.Error(err))
			redisAvailable = false
		}
		cancel()
	}

	var dedupeStore shared.IdempotencyStore
	if redisAvailable {
		dedupeStore = cache.NewRedisIdempotencyStore(redisClient, "")
	} else {
		dedupeStore = cache.NewInMemoryIdempotencyStore()
	}
	defer func() {
		if err := dedupeStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	reconciliationService := inventoryapp.NewReconciliationService(
		entryRepo, departureRepo, eventBus, log, cfg.Scan.RetireRetries,
	)
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(operatorRepo, jwtService, log)
	dispatcher := scan.NewDispatcher(reconciliationService, dedupeStore, cfg.Scan.DuplicateWindow, log)

	// Stock ledger: a live projection of both collections, reloaded on
	// every local mutation event and on change notifications broadcast
	// by other instances.
	ledger := inventoryapp.NewLedger(entryRepo, departureRepo, log)
	eventBus.Subscribe(ledger)
	if err := ledger.Start(context.Background()); err != nil {
		log.Fatal("Failed to start stock ledger", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ledger.Stop(stopCtx); err != nil {
			log.Error("Error stopping stock ledger", zap.Error(err))
		}
	}()

	if redisAvailable {
		notifier := event.NewRedisChangeNotifier(redisClient, log)
		notifier.AddListener(func(event.ChangeNotification) {
			ledger.Refresh()
		})
		eventBus.Subscribe(notifier)
		if err := notifier.Start(context.Background()); err != nil {
			log.Error("Failed to start change notifier", zap.Error(err))
		} else {
			defer func() {
				if err := notifier.Stop(context.Background()); err != nil {
					log.Error("Error stopping change notifier", zap.Error(err))
				}
			}()
			log.Info("Cross-instance change notifications enabled")
		}
	}

	// HTTP engine and middleware
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	middleware.SetupValidator()
	engine.Use(logger.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.DefaultJWTConfig(jwtService)))

	// Handlers and routes
	systemHandler := handler.NewSystemHandler(db)
	router.NewRouter(engine).
		Register(handler.NewAuthHandler(authService)).
		Register(handler.NewStockHandler(reconciliationService, dispatcher, ledger)).
		Register(systemHandler).
		Setup()
	engine.GET("/health", systemHandler.Health)

	// HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
