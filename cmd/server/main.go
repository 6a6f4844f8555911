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

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/mail"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/scheduler"
	"github.com/ikkim/storefront-backend/internal/storage"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Server.LogLevel
	format := "json"
	if cfg.Server.Environment == "development" {
		format = "console"
		if logLevel == "" {
			logLevel = "debug"
		}
	}
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      format,
		EnableColor: format == "console",
	})

	logger.Info("Starting storefront backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token blacklist; without it logout only discards
	// tokens client-side.
	var blacklist service.TokenBlacklist
	if cfg.Redis.Enabled() {
		redisClient, err := redis.Connect(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, token revocation disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redisClient.Close()
			blacklist = redisClient
		}
	}

	// Object storage is optional; the upload endpoint answers 503 without it.
	var presigner controller.AttachmentPresigner
	if cfg.S3.Bucket != "" {
		s3Storage, err := storage.NewS3Storage(context.Background(), &cfg.S3)
		if err != nil {
			logger.Warn("S3 storage unavailable, uploads disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			presigner = s3Storage
		}
	}

	mailer, err := mail.New(&cfg.Mail, cfg.Server.Environment)
	if err != nil {
		logger.Fatal("Failed to initialize mailer", err)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := ws.NewHub()
	go hub.Run(hubCtx)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	resetService := service.NewPasswordResetService(userRepo, mailer, service.ResetConfig{
		ResetURLBase: cfg.Mail.ResetURLBase,
		TokenTTL:     cfg.Mail.ResetTokenTTL,
	})
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(cartRepo, service.WithCartNotifier(hub))
	contactService := service.NewContactService(mailer)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	resetController := controller.NewPasswordResetController(resetService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService)
	contactController := controller.NewContactController(contactService)
	uploadController := controller.NewUploadController(presigner)
	wsController := controller.NewWSController(hub, cartService, cfg.CORS.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)

	r := router.NewRouter(
		authController,
		resetController,
		productController,
		cartController,
		contactController,
		uploadController,
		wsController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	var purgeScheduler *scheduler.TokenPurgeScheduler
	if cfg.Scheduler.TokenPurgeSpec != "" {
		purgeScheduler = scheduler.NewTokenPurgeScheduler(resetService, cfg.Scheduler.TokenPurgeSpec)
		if err := purgeScheduler.Start(); err != nil {
			logger.Fatal("Failed to start reset token purge scheduler", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	if purgeScheduler != nil {
		purgeScheduler.Stop()
	}
	stopHub()

	logger.Info("Server stopped successfully")
}
