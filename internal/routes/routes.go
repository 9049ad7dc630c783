package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/simplepass/simplepass/internal/auth"
	"github.com/simplepass/simplepass/internal/config"
	"github.com/simplepass/simplepass/internal/middleware"
	"github.com/simplepass/simplepass/internal/token"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var tokenRepo token.Repository
	if d.DB != nil {
		tokenRepo = token.NewPostgresRepository(d.DB)
	} else {
		tokenRepo = token.NewMemoryRepository()
	}
	tokenSvc := token.NewService(tokenRepo, d.Logger)
	tokenHandler := token.NewHandler(tokenSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	verifyLimiter := middleware.VerifyRateLimit(d.Cache, d.Cfg.VerifyRateLimit)
	bearer := auth.Bearer([]byte(d.Cfg.JWTSecret))
	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	RegisterTokenRoutes(api, tokenHandler, bearer, verifyLimiter, idempotency)

	return nil
}
