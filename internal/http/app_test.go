package http_test

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"

	"curio/internal/auth"
	"curio/internal/cache"
	"curio/internal/config"
	"curio/internal/http/handlers"
	"curio/internal/repos"
	"curio/internal/services"
)

const testSecret = "http-test-secret"

// newApp wires the API surface against a seeded in-memory database.
func newApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// One connection so every session sees the same in-memory database.
	db.SetMaxOpenConns(1)

	cfg := config.Config{JWTSecret: testSecret, CacheTTL: time.Minute}
	deps := handlers.NewDeps(db, cfg, cache.New(16, cfg.CacheTTL), services.LogNotifier{})

	app := fiber.New()
	app.Use(requestid.New())

	api := app.Group("/api/v1")
	api.Get("/featured", deps.CatalogHandler.Featured)
	api.Get("/category/:id", deps.CatalogHandler.ByCategory)

	user := api.Group("", handlers.RequireUser(cfg.JWTSecret))
	user.Get("/collection", deps.CollectionHandler.View)
	user.Post("/collection", deps.CollectionHandler.Add)
	user.Post("/activities", deps.ActivityHandler.Create)
	user.Get("/activities/:id", deps.ActivityHandler.Get)

	staff := api.Group("/staff", handlers.RequireStaff(cfg.JWTSecret))
	staff.Get("/activities", deps.StaffHandler.Activities)
	staff.Post("/activities/:id/status", deps.StaffHandler.SetStatus)
	staff.Post("/items/:id/featured", deps.StaffHandler.SetFeatured)

	return app, db
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	claims := auth.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}
