package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/nft-checkout/backend/internal/config"
	"github.com/nft-checkout/backend/internal/db"
	"github.com/nft-checkout/backend/internal/events"
	apphttp "github.com/nft-checkout/backend/internal/http"
	"github.com/nft-checkout/backend/internal/http/handlers"
	"github.com/nft-checkout/backend/internal/pinning"
	"github.com/nft-checkout/backend/internal/repositories"
	"github.com/nft-checkout/backend/internal/services"
	"github.com/nft-checkout/backend/internal/solana"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Wallets and chain
	seed, err := solana.DecodeMasterSeed(cfg.MasterSeed)
	if err != nil {
		log.Fatal("invalid MASTER_SEED", zap.Error(err))
	}
	deriver, err := solana.NewDeriver(seed)
	if err != nil {
		log.Fatal("failed to initialize key derivation", zap.Error(err))
	}
	master, err := deriver.MasterAccount()
	if err != nil {
		log.Fatal("failed to derive master wallet", zap.Error(err))
	}
	chain := solana.NewChainClient(cfg.SolanaRPCURL, cfg.USDCMint, master, log)
	log.Info("master wallet ready", zap.String("address", chain.MasterAddress()))

	// Pinning
	pinner := pinning.NewClient(cfg.PinataBaseURL, cfg.PinataGateway, cfg.PinataJWT, log)

	// Repositories
	sessionRepo := repositories.NewSessionRepo(rdb)
	ledgerRepo := repositories.NewLedgerRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	sessionService := services.NewSessionService(sessionRepo, chain, pinner, ledgerRepo, deriver, publisher, cfg, log)

	// Handlers
	checkoutHandler := handlers.NewCheckoutHandler(sessionService, pinner, cfg, log)
	sessionHandler := handlers.NewSessionHandler(sessionService, log)
	opsHandler := handlers.NewOpsHandler(sessionService, ledgerRepo, cfg, log)
	wsHub := handlers.NewWSHub(subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: cfg.MaxUploadBytes + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, checkoutHandler, sessionHandler, opsHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
