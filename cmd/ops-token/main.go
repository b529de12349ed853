package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/nft-checkout/backend/internal/auth"
	"github.com/nft-checkout/backend/internal/config"
	"go.uber.org/zap"
)

// Issues an ops JWT for the recovery/diagnostic endpoints.
func main() {
	operator := flag.String("operator", "", "operator name embedded in the token (required)")
	expiry := flag.Duration("expiry", 0, "token lifetime (defaults to OPS_JWT_EXPIRY_HOURS)")
	flag.Parse()

	log, _ := zap.NewProduction()
	defer log.Sync()

	if *operator == "" {
		log.Fatal("-operator is required")
	}

	cfg := config.Load()
	if cfg.OpsJWTSecret == "" {
		log.Fatal("OPS_JWT_SECRET is required")
	}

	lifetime := cfg.OpsJWTExpiry
	if *expiry > 0 {
		lifetime = *expiry
	}

	token, err := auth.GenerateOpsToken(cfg.OpsJWTSecret, *operator, lifetime)
	if err != nil {
		log.Fatal("failed to generate ops token", zap.Error(err))
	}

	fmt.Println(token)
	fmt.Printf("\nexpires: %s\n", time.Now().Add(lifetime).Format(time.RFC3339))
}
