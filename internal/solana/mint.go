package solana

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"
)

// MintParams describes one session NFT.
type MintParams struct {
	OwnerWallet          string // base58; empty mints to the master wallet
	Name                 string
	Symbol               string
	MetadataURI          string
	SellerFeeBasisPoints uint16
	CollectionMint       string // certified collection the NFT belongs to
}

// MintResult carries the on-chain artifacts back to the session record.
type MintResult struct {
	MintAddress string
	Signature   string
}

// MintNFT mints a single-supply NFT into the certified collection, owned by
// params.OwnerWallet. One transaction: create + init the mint account, write
// Metaplex metadata referencing the collection, create the owner ATA, mint
// exactly one token, create the master edition (MaxSupply=1), then verify the
// collection membership with the master wallet as collection authority.
func (c *ChainClient) MintNFT(ctx context.Context, params MintParams) (*MintResult, error) {
	if params.MetadataURI == "" {
		return nil, fmt.Errorf("metadata URI is empty")
	}
	if params.CollectionMint == "" {
		return nil, fmt.Errorf("collection mint is empty")
	}

	owner := c.master.PublicKey
	if params.OwnerWallet != "" {
		owner = common.PublicKeyFromString(params.OwnerWallet)
	}
	collection := common.PublicKeyFromString(params.CollectionMint)

	mint := types.NewAccount()

	ata, _, err := common.FindAssociatedTokenAddress(owner, mint.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("derive owner token account: %w", err)
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("derive metadata account: %w", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("derive master edition: %w", err)
	}
	collectionMetadata, err := token_metadata.GetTokenMetaPubkey(collection)
	if err != nil {
		return nil, fmt.Errorf("derive collection metadata: %w", err)
	}
	collectionMasterEdition, err := token_metadata.GetMasterEdition(collection)
	if err != nil {
		return nil, fmt.Errorf("derive collection master edition: %w", err)
	}

	mintRent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return nil, fmt.Errorf("get mint rent: %w", err)
	}

	maxSupply := uint64(0) // no prints off this edition

	instructions := []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     c.master.PublicKey,
			New:      mint.PublicKey,
			Owner:    common.TokenProgramID,
			Lamports: mintRent,
			Space:    token.MintAccountSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   0,
			Mint:       mint.PublicKey,
			MintAuth:   c.master.PublicKey,
			FreezeAuth: &c.master.PublicKey,
		}),
		token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
			Metadata:                metadataPubkey,
			Mint:                    mint.PublicKey,
			MintAuthority:           c.master.PublicKey,
			UpdateAuthority:         c.master.PublicKey,
			Payer:                   c.master.PublicKey,
			UpdateAuthorityIsSigner: true,
			IsMutable:               true,
			Data: token_metadata.DataV2{
				Name:                 params.Name,
				Symbol:               params.Symbol,
				Uri:                  params.MetadataURI,
				SellerFeeBasisPoints: params.SellerFeeBasisPoints,
				Creators: &[]token_metadata.Creator{
					{
						Address:  c.master.PublicKey,
						Verified: true,
						Share:    100,
					},
				},
				Collection: &token_metadata.Collection{
					Verified: false, // verified by the instruction below
					Key:      collection,
				},
			},
			CollectionDetails: nil,
		}),
		associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 c.master.PublicKey,
				Owner:                  owner,
				Mint:                   mint.PublicKey,
				AssociatedTokenAccount: ata,
			},
		),
		token.MintTo(token.MintToParam{
			Mint:   mint.PublicKey,
			To:     ata,
			Auth:   c.master.PublicKey,
			Amount: 1,
		}),
		token_metadata.CreateMasterEditionV3(token_metadata.CreateMasterEditionParam{
			Edition:         masterEditionPubkey,
			Mint:            mint.PublicKey,
			UpdateAuthority: c.master.PublicKey,
			MintAuthority:   c.master.PublicKey,
			Metadata:        metadataPubkey,
			Payer:           c.master.PublicKey,
			MaxSupply:       &maxSupply,
		}),
		token_metadata.CreateVerifyCollection(token_metadata.VerifyCollectionParams{
			Metadata:                       metadataPubkey,
			CollectionUpdateAuthority:      c.master.PublicKey,
			Payer:                          c.master.PublicKey,
			CollectionMint:                 collection,
			Collection:                     collectionMetadata,
			CollectionMasterEditionAccount: collectionMasterEdition,
		}),
	}

	sig, err := c.broadcast(ctx, instructions, []types.Account{mint, c.master})
	if err != nil {
		return nil, fmt.Errorf("mint broadcast: %w", err)
	}

	c.log.Info("minted NFT",
		zap.String("mint", mint.PublicKey.ToBase58()),
		zap.String("owner", owner.ToBase58()),
		zap.String("signature", sig),
	)

	return &MintResult{
		MintAddress: mint.PublicKey.ToBase58(),
		Signature:   sig,
	}, nil
}
