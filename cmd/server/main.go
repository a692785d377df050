package main

import (
	"context"
	"log"
	"time"

	"item-warehouse/internal/config"
	"item-warehouse/internal/controller"
	"item-warehouse/internal/middleware"
	"item-warehouse/internal/model"
	"item-warehouse/internal/repository"
	"item-warehouse/internal/service"
	"item-warehouse/internal/storage"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database connection
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Migrate the warehouse catalog table
	if err := db.AutoMigrate(&model.Warehouse{}); err != nil {
		log.Printf("Warning: Database migration failed: %v", err)
		log.Println("Continuing with existing database schema...")
	}

	// Initialize metrics
	middleware.InitMetrics()

	// Initialize repositories and storage binder
	warehouseRepo := repository.NewWarehouseRepository(db)
	itemRepo := repository.NewItemRepository(db)
	binder := storage.NewBinder(db)

	// Seed the active-warehouse gauge from the catalog
	if _, total, err := warehouseRepo.List(context.Background(), 0, 1); err != nil {
		log.Printf("Warning: Failed to count registered warehouses: %v", err)
	} else {
		middleware.SetWarehousesActive(total)
	}

	// Initialize rate limiting
	rateLimitConfig := middleware.RateLimiterConfig{
		RPM:             cfg.Security.RateLimitPerMinute,
		Burst:           cfg.Security.RateLimitBurst,
		CleanupInterval: 5 * time.Minute,
	}
	rateLimiter := middleware.NewRateLimiter(rateLimitConfig)

	// Initialize services
	guard := service.NewWarehouseGuard()
	warehouseService := service.NewWarehouseService(warehouseRepo, binder, guard)
	itemService := service.NewItemService(warehouseRepo, itemRepo, binder, guard)

	// Initialize controllers
	warehouseController := controller.NewWarehouseController(warehouseService)
	itemController := controller.NewItemController(itemService)
	healthController := controller.NewHealthController(db)

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.PrometheusMiddleware())

	// Add rate limiting if enabled
	if cfg.Security.EnableRateLimit {
		router.Use(rateLimiter.RateLimit())
	}

	// Health and metrics endpoints (always available)
	router.GET("/health", healthController.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 group
	api := router.Group("/api/v1")
	{
		warehouses := api.Group("/warehouses")
		{
			warehouses.POST("", warehouseController.CreateWarehouse)
			warehouses.GET("", warehouseController.ListWarehouses)
			warehouses.GET("/:name", warehouseController.GetWarehouse)
			warehouses.GET("/:name/schema", warehouseController.GetWarehouseSchema)
			warehouses.DELETE("/:name", warehouseController.DropWarehouse)

			items := warehouses.Group("/:name/items")
			{
				items.POST("", itemController.InsertItem)
				items.GET("", itemController.QueryItems)
				items.GET("/:key", itemController.GetItem)
				items.PUT("/:key", itemController.UpdateItem)
				items.DELETE("/:key", itemController.DeleteItem)
			}
		}
	}

	// Start server
	log.Printf("Starting server on port %s", cfg.Server.Port)
	log.Printf("Health check available at: http://localhost:%s/health", cfg.Server.Port)

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
