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

// CollectionParams describes the one-time collection parent NFT.
type CollectionParams struct {
	Name                 string
	Symbol               string
	MetadataURI          string
	SellerFeeBasisPoints uint16
}

// MintCollection mints the collection parent NFT into the master wallet.
// Run once per deployment (cmd/create-collection); every session NFT minted
// afterwards references and verifies against this mint.
func (c *ChainClient) MintCollection(ctx context.Context, params CollectionParams) (*MintResult, error) {
	if params.MetadataURI == "" {
		return nil, fmt.Errorf("metadata URI is empty")
	}

	mint := types.NewAccount()

	ata, _, err := common.FindAssociatedTokenAddress(c.master.PublicKey, mint.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("derive master token account: %w", err)
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("derive metadata account: %w", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("derive master edition: %w", err)
	}

	mintRent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return nil, fmt.Errorf("get mint rent: %w", err)
	}

	maxSupply := uint64(0)

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
			},
			CollectionDetails: nil,
		}),
		associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 c.master.PublicKey,
				Owner:                  c.master.PublicKey,
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
	}

	sig, err := c.broadcast(ctx, instructions, []types.Account{mint, c.master})
	if err != nil {
		return nil, fmt.Errorf("collection mint broadcast: %w", err)
	}

	c.log.Info("minted collection",
		zap.String("mint", mint.PublicKey.ToBase58()),
		zap.String("signature", sig),
	)

	return &MintResult{
		MintAddress: mint.PublicKey.ToBase58(),
		Signature:   sig,
	}, nil
}

// ExplorerURL builds a Solana explorer link for a transaction signature.
func ExplorerURL(signature, network string) string {
	if network == "mainnet" {
		return fmt.Sprintf("https://explorer.solana.com/tx/%s", signature)
	}
	return fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", signature, network)
}
