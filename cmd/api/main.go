package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/pixelmint/pixelmint-backend/internal/config"
	"github.com/pixelmint/pixelmint-backend/internal/handler"
	"github.com/pixelmint/pixelmint-backend/internal/middleware"
	"github.com/pixelmint/pixelmint-backend/internal/provider"
	"github.com/pixelmint/pixelmint-backend/internal/repository"
	"github.com/pixelmint/pixelmint-backend/internal/service"
	"github.com/pixelmint/pixelmint-backend/pkg/database"
	"github.com/pixelmint/pixelmint-backend/pkg/email"
	"github.com/pixelmint/pixelmint-backend/pkg/logger"
	"github.com/pixelmint/pixelmint-backend/pkg/payment"
	"github.com/pixelmint/pixelmint-backend/pkg/push"
	"github.com/pixelmint/pixelmint-backend/pkg/storage"
	"github.com/pixelmint/pixelmint-backend/pkg/utils"
)

func main() {
	// .env is optional in deployed environments
	_ = godotenv.Load()

	log := logger.New()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	packageRepo := repository.NewTokenPackageRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	imageRepo := repository.NewImageRepository(db)
	fileRepo := repository.NewFileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Object storage
	s3Storage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatal("failed to initialize object storage", zap.Error(err))
	}

	// Outbound channels
	emailService := email.NewEmailService(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailFromName, log)
	pushGateway := push.NewGateway(cfg.PushGatewayURL, cfg.PushGatewayKey, log)

	// Stripe
	stripeService := payment.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	// Image providers
	providerManager := provider.NewManager(log)
	providerManager.Register(provider.NewMockProvider())
	if cfg.OpenAIAPIKey != "" {
		providerManager.Register(provider.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.GenerationTimeout, log))
	}
	if cfg.CustomAIBaseURL != "" {
		providerManager.Register(provider.NewCustomProvider(cfg.CustomAIAPIKey, cfg.CustomAIBaseURL, cfg.GenerationTimeout, log))
	}
	if err := providerManager.Switch(cfg.AIProvider); err != nil {
		log.Warn("configured provider unavailable, keeping default",
			zap.String("provider", cfg.AIProvider),
			zap.Error(err),
		)
	}

	// Services
	tokenService := service.NewTokenService(tokenRepo, userRepo, log)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, emailService, pushGateway, log)
	authService := service.NewAuthService(userRepo, emailService, tokenService, cfg.SignupBonusTokens, log)
	userService := service.NewUserService(userRepo)
	paymentService := service.NewPaymentService(stripeService, paymentRepo, packageRepo, userRepo, notificationService, log)
	imageService := service.NewImageService(imageRepo, tokenService, providerManager, s3Storage, notificationService, cfg.GenerationTimeout, log)
	fileService := service.NewFileService(fileRepo, s3Storage, log)
	adminService := service.NewAdminService(userRepo, packageRepo, imageRepo, paymentRepo, tokenRepo, tokenService, notificationService, providerManager, log)

	validator := utils.NewValidator()

	// Handlers
	authHandler := handler.NewAuthHandler(authService, validator)
	userHandler := handler.NewUserHandler(userService, validator)
	tokenHandler := handler.NewTokenHandler(tokenService)
	paymentHandler := handler.NewPaymentHandler(paymentService, stripeService, validator, log)
	imageHandler := handler.NewImageHandler(imageService, validator)
	fileHandler := handler.NewFileHandler(fileService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	adminHandler := handler.NewAdminHandler(adminService, validator)

	// Generation workers
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	imageService.Start(workerCtx, cfg.GenerationWorkers)

	app := fiber.New(fiber.Config{
		BodyLimit: 12 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))
	app.Use(fiberlogger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	api := app.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	api.Get("/payments/packages", paymentHandler.GetTokenPackages)

	// Stripe webhook (public, signature-verified)
	api.Post("/webhooks/stripe", paymentHandler.HandleStripeWebhook)

	// Protected routes
	api.Use(middleware.AuthMiddleware())
	{
		profile := api.Group("/profile")
		profile.Get("/", userHandler.GetMyProfile)
		profile.Put("/", userHandler.UpdateProfile)
		profile.Post("/change-password", userHandler.ChangePassword)
		profile.Put("/device-token", userHandler.RegisterDeviceToken)

		tokens := api.Group("/tokens")
		tokens.Get("/balance", tokenHandler.GetBalance)
		tokens.Get("/history", tokenHandler.GetHistory)

		payments := api.Group("/payments")
		payments.Post("/intents/:id", paymentHandler.CreatePaymentIntent)
		payments.Post("/confirm", paymentHandler.ConfirmPayment)
		payments.Get("/history", paymentHandler.GetPaymentHistory)

		images := api.Group("/images")
		images.Post("/generations", imageHandler.Generate)
		images.Get("/", imageHandler.List)
		images.Get("/:id", imageHandler.Get)
		images.Delete("/:id", imageHandler.Delete)

		upload := api.Group("/upload")
		upload.Post("/", fileHandler.Upload)
		upload.Get("/", fileHandler.List)
		upload.Get("/:id/url", fileHandler.SignedURL)
		upload.Delete("/:id", fileHandler.Delete)

		notifications := api.Group("/notifications")
		notifications.Get("/", notificationHandler.List)
		notifications.Put("/:id/read", notificationHandler.MarkRead)

		admin := api.Group("/admin", middleware.AdminOnly())
		admin.Get("/stats", adminHandler.GetStats)
		admin.Get("/users", adminHandler.ListUsers)
		admin.Put("/users/:id/role", adminHandler.UpdateUserRole)
		admin.Post("/users/:id/tokens", adminHandler.AdjustUserTokens)
		admin.Get("/packages", adminHandler.ListPackages)
		admin.Post("/packages", adminHandler.CreatePackage)
		admin.Put("/packages/:id", adminHandler.UpdatePackage)
		admin.Delete("/packages/:id", adminHandler.DeactivatePackage)
		admin.Get("/providers", adminHandler.ListProviders)
		admin.Get("/providers/:name/models", adminHandler.ProviderModels)
		admin.Get("/providers/:name/test", adminHandler.TestProvider)
		admin.Post("/providers/switch", adminHandler.SwitchProvider)
		admin.Post("/notifications/retry", adminHandler.RetryNotifications)
	}

	// Graceful shutdown: stop accepting requests, then drain the workers.
	shutdownDone := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
		stopWorkers()
		imageService.Wait()
		close(shutdownDone)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}

	<-shutdownDone
}
