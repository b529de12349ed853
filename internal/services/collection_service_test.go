package services

import (
	"context"
	"testing"

	"github.com/nft-checkout/backend/internal/config"
	"github.com/nft-checkout/backend/internal/pinning"
	"github.com/nft-checkout/backend/internal/solana"
	"go.uber.org/zap"
)

type fakeCollectionPinner struct {
	fakePinner
	files []string
}

func (f *fakeCollectionPinner) PinFile(ctx context.Context, filename string, data []byte) (*pinning.PinResult, error) {
	f.files = append(f.files, filename)
	return &pinning.PinResult{CID: "QmCollectionImage"}, nil
}

type fakeCollectionMinter struct {
	params *solana.CollectionParams
}

func (f *fakeCollectionMinter) MintCollection(ctx context.Context, params solana.CollectionParams) (*solana.MintResult, error) {
	f.params = &params
	return &solana.MintResult{MintAddress: "CollectionMint111", Signature: "CollectionSig1"}, nil
}

func TestCollectionBootstrap(t *testing.T) {
	pinner := &fakeCollectionPinner{}
	minter := &fakeCollectionMinter{}
	cfg := &config.Config{NFTNamePrefix: "NFT Checkout", NFTSymbol: "NFTC", SolanaNetwork: "devnet"}
	svc := NewCollectionService(pinner, minter, cfg, zap.NewNop())

	result, err := svc.Bootstrap(context.Background(), BootstrapInput{
		Description: "parent collection",
		ImageName:   "collection.png",
		ImageBytes:  []byte("png"),
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if result.CollectionMint != "CollectionMint111" {
		t.Errorf("collection mint = %q", result.CollectionMint)
	}
	if len(pinner.files) != 1 || pinner.files[0] != "collection.png" {
		t.Errorf("pinned files = %v", pinner.files)
	}
	if minter.params == nil {
		t.Fatal("MintCollection not called")
	}
	// Empty name and symbol fall back to the configured branding.
	if minter.params.Name != "NFT Checkout" || minter.params.Symbol != "NFTC" {
		t.Errorf("mint params = %+v", minter.params)
	}
	if result.ExplorerURL == "" {
		t.Error("explorer URL missing")
	}
}

func TestCollectionBootstrapRejectsEmptyImage(t *testing.T) {
	svc := NewCollectionService(&fakeCollectionPinner{}, &fakeCollectionMinter{}, &config.Config{}, zap.NewNop())
	if _, err := svc.Bootstrap(context.Background(), BootstrapInput{}); err == nil {
		t.Fatal("expected error for empty image")
	}
}
