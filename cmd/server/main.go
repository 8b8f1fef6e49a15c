package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avelora/storefront-service/config"
	"github.com/avelora/storefront-service/internal/events"
	"github.com/avelora/storefront-service/pkg/broker"
	"github.com/avelora/storefront-service/pkg/cache"
	"github.com/avelora/storefront-service/pkg/database/postgres"
	"github.com/avelora/storefront-service/pkg/logger"

	catH "github.com/avelora/storefront-service/internal/catalog/handler"
	catRepoPkg "github.com/avelora/storefront-service/internal/catalog/repository"
	catUCPkg "github.com/avelora/storefront-service/internal/catalog/usecase"

	stockH "github.com/avelora/storefront-service/internal/stock/handler"
	stockRepoPkg "github.com/avelora/storefront-service/internal/stock/repository"
	stockUCPkg "github.com/avelora/storefront-service/internal/stock/usecase"

	orderH "github.com/avelora/storefront-service/internal/order/handler"
	orderRepoPkg "github.com/avelora/storefront-service/internal/order/repository"
	orderUCPkg "github.com/avelora/storefront-service/internal/order/usecase"

	posH "github.com/avelora/storefront-service/internal/pos/handler"
	posRepoPkg "github.com/avelora/storefront-service/internal/pos/repository"
	posUCPkg "github.com/avelora/storefront-service/internal/pos/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     false,
		DisableStacktrace: false,
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka Producer
	producer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer producer.Close()
	appLogger.Info("Connected to Kafka Producer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	publisher := events.NewPublisher(producer, appLogger)

	// 6. Initialize Repositories
	stockRepo := stockRepoPkg.NewPGRepository(db)
	catRepo := catRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	posRepo := posRepoPkg.NewPGRepository(db)

	// 7. Initialize UseCases
	stockUC := stockUCPkg.NewStockUseCase(stockRepo, redisClient, cfg.Stock, appLogger)
	catUC := catUCPkg.NewCatalogUseCase(catRepo, stockRepo, redisClient, appLogger)
	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, stockUC, catUC, publisher, appLogger)
	posUC := posUCPkg.NewPOSUseCase(posRepo, stockUC, catUC, publisher, redisClient, appLogger)

	// 8. Initialize Handlers
	stockHandler := stockH.NewStockHandler(stockUC, appLogger)
	catHandler := catH.NewCatalogHandler(catUC, appLogger)
	orderHandler := orderH.NewOrderHandler(orderUC, appLogger)
	posHandler := posH.NewPOSHandler(posUC, appLogger)

	// 9. Start HTTP Server
	app := fiber.New(fiber.Config{
		AppName:      "storefront-service",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	registerRoutes(app, stockHandler, catHandler, orderHandler, posHandler)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	go func() {
		if err := app.Listen(port); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()
	appLogger.Info("Starting HTTP server", zap.String("port", port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	appLogger.Info("Server stopped")
}

func registerRoutes(app *fiber.App, stockHandler *stockH.StockHandler, catHandler *catH.CatalogHandler, orderHandler *orderH.OrderHandler, posHandler *posH.POSHandler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "service": "storefront-service"})
	})

	v1 := app.Group("/api/v1")

	products := v1.Group("/products")
	products.Post("/", catHandler.CreateProduct)
	products.Get("/low-stock", catHandler.ListLowStock)
	products.Get("/:id", catHandler.GetProduct)
	products.Get("/", catHandler.ListProducts)
	products.Post("/:id/variants", catHandler.DeclareVariants)

	stockGroup := v1.Group("/stock")
	stockGroup.Get("/movements", stockHandler.ListMovements)
	stockGroup.Post("/adjust", stockHandler.Adjust)
	stockGroup.Get("/:productID/variant", stockHandler.GetVariantQuantity)
	stockGroup.Get("/:productID", stockHandler.GetProductStock)

	orders := v1.Group("/orders")
	orders.Post("/", orderHandler.PlaceOrder)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Post("/:id/cancel", orderHandler.CancelOrder)
	orders.Patch("/:id/status", orderHandler.UpdateStatus)

	posGroup := v1.Group("/pos")
	posGroup.Post("/sales", posHandler.RecordSale)
	posGroup.Get("/sales/:id", posHandler.GetTransaction)
	posGroup.Get("/sales", posHandler.ListTransactions)
	posGroup.Get("/daily-sales", posHandler.GetDailySales)
}
