package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gourab8389/e-commerce-order-server/internal/cache"
	"github.com/gourab8389/e-commerce-order-server/internal/events"
	"github.com/gourab8389/e-commerce-order-server/internal/repository"
	"github.com/gourab8389/e-commerce-order-server/internal/service"
	"github.com/gourab8389/e-commerce-order-server/pkg/config"
	"github.com/gourab8389/e-commerce-order-server/pkg/db"
	"github.com/gourab8389/e-commerce-order-server/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "order-service", cfg.Env)
	if err != nil {
		log.Fatalf("Error init tracer: %v", err)
	}

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("Error creating new postgres DB: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: cfg.LogLevel,
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("order service started!")

	publisher := events.NewPublisher(cfg.RabbitMQ.URL, cfg.Services.SiblingURLs(), logger)
	publisher.Connect(ctx)

	gateway := cache.New(rdb, logger)
	categoryRepository := repository.NewCategoryRepository(pool, logger)
	categoryService := service.NewCategoryService(categoryRepository, nil, logger)
	catalog := service.NewCachedCategoryService(categoryService, gateway)

	app := fiber.New()
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("Order service is alive!")
	})
	app.Get("/categories/public", func(c *fiber.Ctx) error {
		listing, err := catalog.ListPublic(c.Context(), c.Query("search"), c.Query("sellerId"))
		if err != nil {
			return fiber.ErrInternalServerError
		}
		return c.JSON(listing)
	})

	go func() {
		log.Println("HTTP order service listening on port: " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening HTTP on port %v: %v", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if err := publisher.Close(); err != nil {
		log.Printf("Error closing event publisher: %v", err)
	}

	if err := rdb.Close(); err != nil {
		log.Printf("Error closing redis client: %v", err)
	}

	pool.Close()
	log.Println("Closed db pool successfully")

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error stopping telemetry: %v", err)
	}
}
