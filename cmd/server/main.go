package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/bakehouse/backend/internal/application/catalog"
	"github.com/bakehouse/backend/internal/application/costing"
	stockapp "github.com/bakehouse/backend/internal/application/stock"
	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/movement"
	"github.com/bakehouse/backend/internal/infrastructure/config"
	"github.com/bakehouse/backend/internal/infrastructure/event"
	"github.com/bakehouse/backend/internal/infrastructure/logger"
	"github.com/bakehouse/backend/internal/infrastructure/persistence"
	"github.com/bakehouse/backend/internal/interfaces/http/handler"
	"github.com/bakehouse/backend/internal/interfaces/http/middleware"
	"github.com/bakehouse/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting bakehouse backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	recipeRepo := persistence.NewGormRecipeRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)

	// Domain services
	bus := event.NewInMemoryEventBus(log)
	bomCalc := catalog.NewBOMCalculator(recipeRepo, log)
	deltaEngine := movement.NewDeltaEngine(recipeRepo, bomCalc, log)
	stockLedger := persistence.NewStockLedger(db.DB, log)

	// Application services
	recipeCostService := costing.NewRecipeCostService(recipeRepo, bus, log).
		WithMaxDepth(cfg.Cascade.MaxDepth).
		WithNoiseFloor(cfg.Cascade.NoiseFloorDecimal())
	productCostService := costing.NewProductCostService(recipeRepo, bomCalc, recipeCostService, bus, log)
	ledgerService := stockapp.NewLedgerService(movementRepo, productRepo, deltaEngine, stockLedger, bus, log)

	productService := catalogapp.NewProductService(productRepo, bus, log)
	recipeService := catalogapp.NewRecipeService(recipeRepo, productRepo, bomCalc, bus, log)
	movementService := stockapp.NewMovementService(movementRepo, productRepo, recipeRepo, bus, log)

	// Event subscriptions. The bus is synchronous, so the stock delta and
	// the costing cascade complete before the triggering request returns.
	bus.Subscribe(costing.NewProductCostChangedHandler(productCostService, log))
	bus.Subscribe(costing.NewRecipeCostChangedHandler(recipeCostService, log))
	bus.Subscribe(stockapp.NewMovementCreatedHandler(ledgerService, log))
	bus.Subscribe(stockapp.NewMovementDeletedHandler(ledgerService, log))
	bus.Subscribe(stockapp.NewStockBelowThresholdHandler(log).
		WithNotifier(stockapp.NewLoggingStockAlertNotifier(log)))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, "/api/v1/system/health"))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewProductHandler(productService)).
		Register(handler.NewRecipeHandler(recipeService)).
		Register(handler.NewMovementHandler(movementService)).
		Register(handler.NewSystemHandler(db)).
		Setup()

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
