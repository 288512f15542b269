package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/storefront/internal/cache"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/routes"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg.LogLevel)

	db := database.Connect(cfg.DatabaseURL)

	redisClient := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	store := cache.NewRedisStore(redisClient)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.HealthCheck(ctx); err != nil {
		slog.Warn("redis is not reachable yet", "addr", cfg.RedisAddr, "error", err)
	}
	cancel()

	notifier := services.ContactRouter{
		Email: services.NewEmailService(services.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Timeout:  cfg.ExternalTimeout,
		}),
		SMS: services.NewSMSService(services.SMSConfig{
			BaseURL:  cfg.SMSBaseURL,
			APIToken: cfg.SMSAPIToken,
			SenderID: cfg.SMSSenderID,
			Timeout:  cfg.ExternalTimeout,
		}),
	}
	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, cfg.ExternalTimeout)
	chapa := services.NewChapaService(services.ChapaConfig{
		BaseURL:   cfg.ChapaBaseURL,
		SecretKey: cfg.ChapaSecretKey,
		Timeout:   cfg.ExternalTimeout,
	})

	otp := services.NewOTPManager(store, notifier)
	auth := services.NewAuthService(db, otp, notifier, utils.TokenIssuer{Secret: cfg.JWTSecret, TTL: cfg.TokenExpires}, services.AuthConfig{
		OTPTTL:           cfg.OTPTTL,
		PasswordResetTTL: cfg.PasswordResetTTL,
	})
	orders := services.NewOrderService(db, notifier, telegram, cfg.PaymentCurrency)
	payments := services.NewPaymentService(db, chapa, orders, cfg.PaymentCurrency, cfg.BaseURL)
	products := services.NewProductService(db)

	app := fiber.New(fiber.Config{
		AppName:      "Storefront Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg, routes.Services{
		Auth:     auth,
		Orders:   orders,
		Payments: payments,
		Products: products,
		Cache:    store,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}

func setupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
