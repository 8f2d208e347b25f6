package app

import (
	"fmt"

	"shikkha_backend/internal/config"
	"shikkha_backend/internal/gateway"
	"shikkha_backend/internal/handlers"
	"shikkha_backend/internal/logger"
	"shikkha_backend/internal/middleware"
	"shikkha_backend/internal/models"
	"shikkha_backend/internal/push"
	"shikkha_backend/internal/repositories"
	"shikkha_backend/internal/routes"
	"shikkha_backend/internal/services"
	"shikkha_backend/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	if err := godotenv.Load(); err != nil {
		// .env is optional outside local development
		logger.Debug("no .env file loaded")
	}

	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := gormDB.AutoMigrate(
		&models.PaymentRecord{},
		&models.EnrollmentRecord{},
		&models.Notification{},
		&models.PushSubscription{},
	); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	ginRouter, err := SetupRouter(cfg, gormDB)
	if err != nil {
		logger.Fatal("Failed to set up router", "error", err)
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter wires every dependency explicitly, constructed once here and
// passed down. No package-level clients, no hidden init order.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, error) {
	gatewayClient, err := gateway.NewClient(cfg.Gateway)
	if err != nil {
		return nil, err
	}

	paymentRepo := repositories.NewPaymentRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	subscriptionRepo := repositories.NewPushSubscriptionRepository(gormDB)

	pushSender := push.NewWebPushSender(cfg.Push)
	dispatcher := services.NewNotificationDispatcher(notificationRepo, subscriptionRepo, pushSender)

	enrollmentService := services.NewEnrollmentService(gatewayClient, paymentRepo, dispatcher, services.CheckoutURLs{
		Redirect: cfg.Gateway.RedirectURL,
		Cancel:   cfg.Gateway.CancelURL,
		Webhook:  cfg.Gateway.WebhookURL,
	})
	subscriptionService := services.NewPushSubscriptionService(subscriptionRepo)

	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	appHandlers := &handlers.AppHandlers{
		PaymentHandler: handlers.NewPaymentHandler(baseHandler, enrollmentService),
		PushHandler:    handlers.NewPushHandler(baseHandler, subscriptionService),
	}

	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginRouter := gin.New()
	ginRouter.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(),
	)

	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter, nil
}
