package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"labella/internal/handlers"
	"labella/internal/middleware"
	"labella/internal/models"
	"labella/internal/repositories"
	"labella/internal/services"
	"labella/pkg/logger"
	"labella/pkg/rabbitmq"
)

// Config holds all runtime settings, loaded from environment variables.
type Config struct {
	AppPort        string
	DatabaseDriver string
	DatabaseDSN    string
	JWTSecret      string
	RabbitMQURL    string
	UploadDir      string
	SeedData       bool
	LogLevel       string
}

// LoadConfig reads settings from the environment with sane defaults.
func LoadConfig() Config {
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "labella.db")
	viper.SetDefault("JWT_SECRET", "change-me-in-production")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("UPLOAD_DIR", "./uploads")
	viper.SetDefault("SEED_DATA", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.AutomaticEnv()

	return Config{
		AppPort:        viper.GetString("APP_PORT"),
		DatabaseDriver: viper.GetString("DATABASE_DRIVER"),
		DatabaseDSN:    viper.GetString("DATABASE_DSN"),
		JWTSecret:      viper.GetString("JWT_SECRET"),
		RabbitMQURL:    viper.GetString("RABBITMQ_URL"),
		UploadDir:      viper.GetString("UPLOAD_DIR"),
		SeedData:       viper.GetBool("SEED_DATA"),
		LogLevel:       viper.GetString("LOG_LEVEL"),
	}
}

// App bundles the HTTP server with the resources it owns.
type App struct {
	Fiber    *fiber.App
	DB       *gorm.DB
	MQClient *rabbitmq.Client

	log *logger.Logger
}

// NewApp opens the database, wires repositories, services and handlers, and
// returns a ready-to-listen application.
func NewApp(cfg Config, log *logger.Logger) (*App, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return nil, err
	}

	// RabbitMQ is optional. Without a broker URL orders are still placed,
	// only the order_events queue goes unused.
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Warn("RabbitMQ unavailable, continuing without event publishing", zap.Error(err))
			mqClient = nil
		}
	}

	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	productService := services.NewProductService(productRepo)
	categoryService := services.NewCategoryService(categoryRepo, productRepo)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)

	var publisher services.EventPublisher
	if mqClient != nil {
		publisher = mqClient
	}
	orderService := services.NewOrderService(orderRepo, productRepo, publisher, log)

	productHandler := handlers.NewProductHandler(productService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	orderHandler := handlers.NewOrderHandler(orderService)
	authHandler := handlers.NewAuthHandler(authService)
	uploadHandler := handlers.NewUploadHandler(cfg.UploadDir)

	fiberApp := fiber.New(fiber.Config{
		AppName: "labella",
		// Above the per-file upload limit so multi-file uploads are judged
		// by the handler, not cut off at the transport.
		BodyLimit: 64 << 20,
	})
	fiberApp.Use(fiberlogger.New())

	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := fiberApp.Group("/api/v1")

	// Public storefront surface.
	categoryHandler.RegisterPublicRoutes(apiV1)
	productHandler.RegisterPublicRoutes(apiV1)
	orderHandler.RegisterPublicRoutes(apiV1)

	// Authentication.
	authHandler.RegisterRoutes(apiV1.Group("/auth"))

	// Back office surface, JWT protected.
	admin := apiV1.Group("/admin", middleware.AuthRequired(authService, log))
	categoryHandler.RegisterAdminRoutes(admin)
	productHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	uploadHandler.RegisterRoutes(admin)

	if cfg.SeedData {
		if err := seedData(db, log); err != nil {
			log.Warn("seeding failed", zap.Error(err))
		}
	}

	return &App{
		Fiber:    fiberApp,
		DB:       db,
		MQClient: mqClient,
		log:      log,
	}, nil
}

// Close releases the resources held by the application.
func (a *App) Close() {
	if a.MQClient != nil {
		if err := a.MQClient.Close(); err != nil {
			a.log.Warn("error closing RabbitMQ client", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func openDatabase(cfg Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	switch cfg.DatabaseDriver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DatabaseDSN), gormConfig)
	default:
		return gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormConfig)
	}
}

func main() {
	cfg := LoadConfig()
	log := logger.New("labella", cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	app, err := NewApp(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer app.Close()

	// Consume order events when a broker is configured. The handler only
	// logs for now; fulfillment integrations hook in here.
	if app.MQClient != nil {
		go func() {
			log.Info("starting order events consumer")
			err := app.MQClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
				log.Info("order event received",
					zap.Uint64("delivery_tag", msg.DeliveryTag),
					zap.ByteString("body", msg.Body),
				)
				return nil
			})
			if err != nil {
				log.Error("order events consumer stopped", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting server", zap.String("port", cfg.AppPort))
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down server")

	if err := app.Fiber.Shutdown(); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// seedData inserts an admin user and a starter catalog when the database is
// empty.
func seedData(db *gorm.DB, log *logger.Logger) error {
	if err := seedAdminUser(db, log); err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	category := models.Category{
		ID:       uuid.New().String(),
		Name:     "Vestidos",
		Slug:     "vestidos",
		IsActive: true,
	}
	if err := db.Create(&category).Error; err != nil {
		return err
	}

	products := []models.Product{
		{
			ID:               uuid.New().String(),
			CategoryID:       &category.ID,
			Name:             "Vestido Floral Midi",
			Slug:             "vestido-floral-midi",
			ShortDescription: "Vestido midi com estampa floral",
			Price:            decimal.NewFromFloat(189.90),
			SKU:              "VFM-001",
			Quantity:         25,
			IsActive:         true,
			IsFeatured:       true,
			Sizes:            []string{"P", "M", "G"},
		},
		{
			ID:               uuid.New().String(),
			CategoryID:       &category.ID,
			Name:             "Vestido Longo Festa",
			Slug:             "vestido-longo-festa",
			ShortDescription: "Vestido longo para ocasiões especiais",
			Price:            decimal.NewFromFloat(349.90),
			SKU:              "VLF-002",
			Quantity:         10,
			IsActive:         true,
			Sizes:            []string{"M", "G"},
		},
	}

	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			return err
		}
		log.Info("seeded product", zap.String("name", products[i].Name))
	}

	return nil
}

// seedAdminUser creates the default back-office login when no users exist.
// The password must be changed after first login.
func seedAdminUser(db *gorm.DB, log *logger.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		ID:       uuid.New().String(),
		Username: "admin",
		Email:    "admin@labella.com",
		Password: string(hashedPassword),
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Info("seeded admin user", zap.String("username", admin.Username))
	return nil
}
