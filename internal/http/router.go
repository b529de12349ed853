package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nft-checkout/backend/internal/config"
	"github.com/nft-checkout/backend/internal/http/handlers"
	"github.com/nft-checkout/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	checkoutHandler *handlers.CheckoutHandler,
	sessionHandler *handlers.SessionHandler,
	opsHandler *handlers.OpsHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Recovery-Secret",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Public buyer surface, rate limited
	public := api.Group("", middleware.RateLimitMiddleware(rdb, 100, time.Minute))
	public.Post("/upload", checkoutHandler.Upload)
	public.Post("/checkout", checkoutHandler.Checkout)
	public.Get("/poll/:sessionId", sessionHandler.Poll)
	public.Get("/sessions/:sessionId", sessionHandler.Get)

	// Ops surface: ops token or recovery secret
	ops := api.Group("", middleware.OpsAuthMiddleware(cfg, log))
	ops.Get("/recover", opsHandler.Recover)
	ops.Get("/master-address", opsHandler.MasterAddress)
	ops.Get("/mints", opsHandler.Mints)

	// Diagnostic only; never mount in production.
	if cfg.EnableTestEndpoints {
		ops.Get("/test-mint", checkoutHandler.TestMint)
	}

	// WebSocket push of session events
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
