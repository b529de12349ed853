package services

import (
	"context"
	"fmt"

	"github.com/nft-checkout/backend/internal/config"
	"github.com/nft-checkout/backend/internal/pinning"
	"github.com/nft-checkout/backend/internal/solana"
	"go.uber.org/zap"
)

// CollectionPinner needs file pinning on top of what the lifecycle uses.
type CollectionPinner interface {
	Pinner
	PinFile(ctx context.Context, filename string, data []byte) (*pinning.PinResult, error)
}

// CollectionMinter is the chain slice the bootstrap needs.
type CollectionMinter interface {
	MintCollection(ctx context.Context, params solana.CollectionParams) (*solana.MintResult, error)
}

// CollectionService runs the one-time collection bootstrap: pin the
// collection image, pin its metadata, mint the parent NFT all session NFTs
// verify against. Intended to run exactly once per deployment
// (cmd/create-collection).
type CollectionService struct {
	pinner CollectionPinner
	minter CollectionMinter
	cfg    *config.Config
	log    *zap.Logger
}

func NewCollectionService(pinner CollectionPinner, minter CollectionMinter, cfg *config.Config, log *zap.Logger) *CollectionService {
	return &CollectionService{pinner: pinner, minter: minter, cfg: cfg, log: log}
}

type BootstrapInput struct {
	Name        string
	Symbol      string
	Description string
	ImageName   string
	ImageBytes  []byte
}

type BootstrapResult struct {
	CollectionMint string `json:"collection_mint"`
	MetadataURI    string `json:"metadata_uri"`
	ImageURI       string `json:"image_uri"`
	Signature      string `json:"signature"`
	ExplorerURL    string `json:"explorer_url"`
}

func (s *CollectionService) Bootstrap(ctx context.Context, in BootstrapInput) (*BootstrapResult, error) {
	if len(in.ImageBytes) == 0 {
		return nil, fmt.Errorf("collection image is empty")
	}
	if in.Name == "" {
		in.Name = s.cfg.NFTNamePrefix
	}
	if in.Symbol == "" {
		in.Symbol = s.cfg.NFTSymbol
	}

	image, err := s.pinner.PinFile(ctx, in.ImageName, in.ImageBytes)
	if err != nil {
		return nil, upstream("pinning", err)
	}
	imageURI := s.pinner.GatewayURL(image.CID)

	metadata, err := s.pinner.PinJSON(ctx, in.Name+"-collection-metadata", map[string]any{
		"name":        in.Name,
		"symbol":      in.Symbol,
		"description": in.Description,
		"image":       imageURI,
	})
	if err != nil {
		return nil, upstream("pinning", err)
	}
	metadataURI := s.pinner.GatewayURL(metadata.CID)

	minted, err := s.minter.MintCollection(ctx, solana.CollectionParams{
		Name:        in.Name,
		Symbol:      in.Symbol,
		MetadataURI: metadataURI,
	})
	if err != nil {
		return nil, upstream("solana", err)
	}

	s.log.Info("collection bootstrapped",
		zap.String("collection_mint", minted.MintAddress),
		zap.String("metadata_uri", metadataURI),
	)

	return &BootstrapResult{
		CollectionMint: minted.MintAddress,
		MetadataURI:    metadataURI,
		ImageURI:       imageURI,
		Signature:      minted.Signature,
		ExplorerURL:    solana.ExplorerURL(minted.Signature, s.cfg.SolanaNetwork),
	}, nil
}
