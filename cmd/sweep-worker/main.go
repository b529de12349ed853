package main

import (
	"context"
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

// Retries failed sweeps in the background. A session whose mint succeeded but
// whose sweep broadcast failed is already terminal for the buyer; this worker
// exists so the USDC eventually reaches the master wallet without an operator.
func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log, true)

	if cfg.SweepRecoveryMode != "background" {
		log.Fatal("SWEEP_RECOVERY_MODE is manual, the sweep worker should not be running")
	}

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

	log.Info("sweep worker started",
		zap.String("master_address", chain.MasterAddress()),
		zap.Duration("interval", cfg.SweepInterval),
	)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	// Periodic read-only scan over the recent derivation window, logged so
	// drift between the unswept set and on-chain balances shows up in ops.
	scanEvery := 10
	passes := 0

	for {
		select {
		case <-ctx.Done():
			log.Info("sweep worker stopped")
			return
		case <-ticker.C:
			sessionService.RetrySweeps(ctx)

			passes++
			if passes%scanEvery == 0 {
				scanned, wallets, err := sessionService.ScanUnswept(ctx, cfg.ScanWindow)
				if err != nil {
					log.Error("unswept scan failed", zap.Error(err))
					continue
				}
				if len(wallets) > 0 {
					for _, w := range wallets {
						log.Warn("derived wallet holds unswept USDC",
							zap.Uint32("session_index", w.SessionIndex),
							zap.String("address", w.Address),
							zap.Float64("usdc", w.USDC),
						)
					}
				} else {
					log.Info("unswept scan clean", zap.Int("scanned", scanned))
				}
			}
		}
	}
}
