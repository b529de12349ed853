package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nft-checkout/backend/internal/config"
	"github.com/nft-checkout/backend/internal/db"
	"github.com/nft-checkout/backend/internal/events"
	"github.com/nft-checkout/backend/internal/pinning"
	"github.com/nft-checkout/backend/internal/repositories"
	"github.com/nft-checkout/backend/internal/services"
	"github.com/nft-checkout/backend/internal/solana"
	"go.uber.org/zap"
)

// Scans pending sessions on an interval and drives each through the same
// lifecycle the poll endpoint uses. Buyers that stop polling still get their
// NFT once the payment lands.
func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

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

	pinner := pinning.NewClient(cfg.PinataBaseURL, cfg.PinataGateway, cfg.PinataJWT, log)
	sessionRepo := repositories.NewSessionRepo(rdb)
	ledgerRepo := repositories.NewLedgerRepo(pool)
	publisher := events.NewRedisPublisher(rdb, log)

	sessionService := services.NewSessionService(sessionRepo, chain, pinner, ledgerRepo, deriver, publisher, cfg, log)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	log.Info("payment watcher started",
		zap.String("network", cfg.SolanaNetwork),
		zap.Duration("interval", cfg.WatcherInterval),
	)

	ticker := time.NewTicker(cfg.WatcherInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("payment watcher stopped")
			return
		case <-ticker.C:
			runPass(ctx, sessionRepo, sessionService, log)
		}
	}
}

func runPass(ctx context.Context, sessionRepo *repositories.SessionRepo, sessionService *services.SessionService, log *zap.Logger) {
	ids, err := sessionRepo.ListPending(ctx)
	if err != nil {
		log.Error("failed to list pending sessions", zap.Error(err))
		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}

		result, err := sessionService.Advance(ctx, id)
		if err != nil {
			if errors.Is(err, services.ErrSessionNotFound) {
				// Session expired out of redis, drop it from the scan set.
				_ = sessionRepo.RemovePending(ctx, id)
				continue
			}
			log.Error("failed to advance session", zap.String("session_id", id), zap.Error(err))
			continue
		}

		if result.Insufficient || result.InProgress {
			continue
		}
		log.Info("session advanced",
			zap.String("session_id", id),
			zap.String("status", result.Status),
			zap.String("mint_address", result.MintAddress),
		)
	}
}
