package main

import (
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"curio/internal/cache"
	"curio/internal/config"
	"curio/internal/http/handlers"
	applog "curio/internal/log"
	"curio/internal/repos"
	"curio/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	publicCache := cache.New(256, cfg.CacheTTL)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	deps := handlers.NewDeps(db, cfg, publicCache, services.LogNotifier{})

	api := app.Group("/api/v1")

	// Public catalog reads
	api.Get("/featured", deps.CatalogHandler.Featured)
	api.Get("/categories", deps.CatalogHandler.Categories)
	api.Get("/category/:id", deps.CatalogHandler.ByCategory)
	api.Get("/items/:id", deps.CatalogHandler.Item)

	// Collection (authenticated user)
	user := api.Group("", handlers.RequireUser(cfg.JWTSecret))
	user.Get("/collection", deps.CollectionHandler.View)
	user.Post("/collection", deps.CollectionHandler.Add)
	user.Delete("/collection", deps.CollectionHandler.Clear)
	user.Patch("/collection/entries/:id", deps.CollectionHandler.UpdateEntry)
	user.Delete("/collection/entries/:id", deps.CollectionHandler.RemoveEntry)

	// Finalization throttled harder than reads
	finalizeLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.finalize.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	user.Post("/activities", finalizeLimiter, deps.ActivityHandler.Create)
	user.Get("/activities", deps.ActivityHandler.History)
	user.Get("/activities/:id", deps.ActivityHandler.Get)

	// Staff surface
	staff := api.Group("/staff", handlers.RequireStaff(cfg.JWTSecret))
	staff.Get("/activities", deps.StaffHandler.Activities)
	staff.Post("/activities/:id/status", deps.StaffHandler.SetStatus)
	staff.Post("/items/:id/featured", deps.StaffHandler.SetFeatured)
	staff.Post("/items/:id/category", deps.StaffHandler.SetCategory)
	staff.Post("/items/:id/availability", deps.StaffHandler.SetAvailability)
	staff.Post("/items/:id/quantity", deps.StaffHandler.Restock)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	// Metrics on a separate listener so the public limiter never starves scrapes
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("[metrics] listening on %s", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Printf("[warn] metrics listener: %v", err)
		}
	}()

	log.Fatal(app.Listen(":" + cfg.Port))
}
