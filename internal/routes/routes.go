package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/swiftsend/swiftsend/internal/auth"
	"github.com/swiftsend/swiftsend/internal/config"
	"github.com/swiftsend/swiftsend/internal/identity"
	"github.com/swiftsend/swiftsend/internal/middleware"
	"github.com/swiftsend/swiftsend/internal/notification"
	"github.com/swiftsend/swiftsend/internal/rates"
	"github.com/swiftsend/swiftsend/internal/recipient"
	"github.com/swiftsend/swiftsend/internal/token"
	"github.com/swiftsend/swiftsend/internal/transfer"
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
	if d.Cache != nil {
		// Auth endpoints are exempt: login and refresh carry no
		// Idempotency-Key and are safe to repeat.
		idem := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
		app.Use(func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/auth") {
				return c.Next()
			}
			return idem(c)
		})
	}

	RegisterHealthRoutes(app, d)

	// Services and handlers
	tokens := token.NewManager(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL, d.Cfg.RefreshTokenTTL)

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(identitySvc, tokens)
	authHandler := auth.NewHandler(authSvc, d.Cfg.RefreshTokenTTL, !d.Cfg.IsDev())

	var recipientRepo recipient.Repository
	if d.DB != nil {
		recipientRepo = recipient.NewPostgresRepository(d.DB)
	} else {
		recipientRepo = recipient.NewMemoryRepository()
	}
	recipientSvc := recipient.NewService(recipientRepo)
	recipientHandler := recipient.NewHandler(recipientSvc)

	var transferRepo transfer.Repository
	if d.DB != nil {
		transferRepo = transfer.NewPostgresRepository(d.DB)
	} else {
		transferRepo = transfer.NewMemoryRepository()
	}
	notifier := notification.NewLoggerNotifier(d.Logger)
	transferSvc := transfer.NewService(transferRepo, rates.NewStatic(0), notifier)
	transferHandler := transfer.NewHandler(transferSvc)

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(app, authHandler, rateLimiter)

	// Protected routes
	bearer := middleware.BearerAuth(tokens)
	RegisterRecipientRoutes(app, recipientHandler, bearer)
	RegisterTransferRoutes(app, transferHandler, bearer)

	return nil
}
