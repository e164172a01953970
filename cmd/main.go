package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reservation-client/internal/di"
	"reservation-client/internal/session/config"
	"reservation-client/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLoggerWithConfig(cfg.LogLevel, cfg.LogFormat)
	appLogger.Info("Configuration loaded successfully")

	container := di.NewContainer(appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	if err := container.InitializeSession(cfg); err != nil {
		log.Fatalf("Failed to initialize session module: %v", err)
	}
	if err := container.InitializeReservations(); err != nil {
		log.Fatalf("Failed to initialize reservation module: %v", err)
	}
	if err := container.InitializeApp(); err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	// Restore the persisted session before serving: route guards defer while
	// this runs, and it settles the loading flag exactly once.
	restoreCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := container.Sessions.Restore(restoreCtx); err != nil {
		appLogger.Warnf("Session restore failed, starting unauthenticated: %v", err)
	}
	cancel()

	server := fiber.New(fiber.Config{
		AppName:      "Table Reservation Client v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			appLogger.Errorf("HTTP Error: %v", err)
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	server.Use(recover.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	container.App.SetupRoutes(server)

	go func() {
		if err := server.Listen(cfg.ListenAddr); err != nil {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()
	appLogger.Infof("Dashboard listening on %s", cfg.ListenAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Errorf("Shutdown error: %v", err)
	}
}
