package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"kyctrust/internal/admin"
	"kyctrust/internal/auth"
	"kyctrust/internal/config"
	"kyctrust/internal/resource"
	"kyctrust/internal/state"
	"kyctrust/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db: %s/%s)", cfg.Server.Port, cfg.Database.Driver, cfg.Database.Name)

	// 2. Application state: seed from disk, then attach persistence + sweep
	persistor := state.NewPersistor(cfg.State.FilePath)
	appState := state.New(persistor.Seed(state.Defaults()))
	unsubscribe := persistor.Attach(appState)
	defer unsubscribe()

	sweeper := state.NewSweeper(appState, cfg.State.SweepInterval, cfg.State.CacheStaleAfter)
	sweeper.Start()
	defer sweeper.Stop()

	// 3. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	// 4. Create tables and seed admin user
	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap site tables: %v", err)
	}
	log.Println("Site tables ready")

	// 5. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(resource.CORS())
	app.Use(countRequests(appState))

	// 6. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 7. Auth routes (no auth required)
	authHandler := auth.NewHandler(db, cfg.JWTSecret)
	auth.RegisterAuthRoutes(app, authHandler)

	// 8. Admin dashboard routes (auth required)
	resources := resource.Builtin()
	adminHandler := admin.NewHandler(db, appState, resources, cfg.State)
	admin.RegisterAdminRoutes(app, adminHandler, auth.Middleware(cfg.JWTSecret))

	// 9. Resource endpoints
	resourceHandler := resource.NewHandler(db)
	resource.Register(app, resourceHandler, resources)

	// 10. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}

// countRequests feeds the state store's performance counters.
func countRequests(appState *state.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		appState.IncrCounter("requests", 1)
		if err != nil {
			appState.IncrCounter("request_errors", 1)
			appState.SetLastError(err.Error())
		}
		return err
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	var appErr *resource.AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			log.Printf("ERROR: %s: %v", appErr.Message, appErr.Err)
		}
		return c.Status(appErr.Status).JSON(resource.ErrorResponse{Error: appErr.Message})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(resource.ErrorResponse{Error: fiberErr.Message})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(resource.ErrorResponse{Error: "internal server error"})
}
