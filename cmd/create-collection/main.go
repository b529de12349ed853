package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nft-checkout/backend/internal/config"
	"github.com/nft-checkout/backend/internal/pinning"
	"github.com/nft-checkout/backend/internal/services"
	"github.com/nft-checkout/backend/internal/solana"
	"go.uber.org/zap"
)

// One-time bootstrap: pins the collection image and metadata, mints the
// collection NFT, and prints the mint address to set as COLLECTION_MINT.
func main() {
	imagePath := flag.String("image", "", "path to the collection image (required)")
	name := flag.String("name", "", "collection name (defaults to NFT_NAME_PREFIX)")
	symbol := flag.String("symbol", "", "collection symbol (defaults to NFT_SYMBOL)")
	description := flag.String("description", "", "collection description")
	flag.Parse()

	log, _ := zap.NewProduction()
	defer log.Sync()

	if *imagePath == "" {
		log.Fatal("-image is required")
	}

	cfg := config.Load()
	cfg.Validate(log, false)

	imageBytes, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatal("failed to read collection image", zap.String("path", *imagePath), zap.Error(err))
	}

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

	collectionService := services.NewCollectionService(pinner, chain, cfg, log)

	log.Info("bootstrapping collection",
		zap.String("master_address", chain.MasterAddress()),
		zap.String("network", cfg.SolanaNetwork),
	)

	result, err := collectionService.Bootstrap(context.Background(), services.BootstrapInput{
		Name:        *name,
		Symbol:      *symbol,
		Description: *description,
		ImageName:   filepath.Base(*imagePath),
		ImageBytes:  imageBytes,
	})
	if err != nil {
		log.Fatal("collection bootstrap failed", zap.Error(err))
	}

	fmt.Printf("collection mint: %s\n", result.CollectionMint)
	fmt.Printf("metadata uri:    %s\n", result.MetadataURI)
	fmt.Printf("image uri:       %s\n", result.ImageURI)
	fmt.Printf("signature:       %s\n", result.Signature)
	fmt.Printf("explorer:        %s\n", result.ExplorerURL)
	fmt.Printf("\nset COLLECTION_MINT=%s and restart the API\n", result.CollectionMint)
}
