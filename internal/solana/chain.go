package solana

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"
)

// ChainClient wraps the Solana RPC for everything this backend does on-chain:
// balance reads, fund sweeps and NFT mints. The master wallet signs every
// broadcast, so broadcasts are serialized through broadcastMu to keep
// blockhash/sequencing sane when several sessions finalize at once.
type ChainClient struct {
	rpc      *client.Client
	usdcMint common.PublicKey
	master   types.Account
	log      *zap.Logger

	broadcastMu sync.Mutex
}

func NewChainClient(rpcURL, usdcMint string, master types.Account, log *zap.Logger) *ChainClient {
	return &ChainClient{
		rpc:      client.NewClient(rpcURL),
		usdcMint: common.PublicKeyFromString(usdcMint),
		master:   master,
		log:      log,
	}
}

func (c *ChainClient) MasterAddress() string {
	return c.master.PublicKey.ToBase58()
}

// USDCBalance returns the raw (6-decimal) USDC balance of a wallet's
// associated token account. A wallet that never received USDC has no token
// account at all; that reads as zero, not as an error.
func (c *ChainClient) USDCBalance(ctx context.Context, owner string) (uint64, error) {
	ata, _, err := common.FindAssociatedTokenAddress(common.PublicKeyFromString(owner), c.usdcMint)
	if err != nil {
		return 0, fmt.Errorf("derive token account: %w", err)
	}

	bal, err := c.rpc.GetTokenAccountBalance(ctx, ata.ToBase58())
	if err != nil {
		if isAccountNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get token balance for %s: %w", owner, err)
	}
	return bal.Amount, nil
}

// SOLBalance returns the lamport balance of a wallet.
func (c *ChainClient) SOLBalance(ctx context.Context, owner string) (uint64, error) {
	bal, err := c.rpc.GetBalance(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("get balance for %s: %w", owner, err)
	}
	return bal, nil
}

// SweepToMaster moves the full USDC balance (and any residual SOL) of a
// derived session wallet to the master wallet. The master wallet pays the fee
// so the session wallet never needs SOL of its own. Returns the transaction
// signature and the raw USDC amount moved.
func (c *ChainClient) SweepToMaster(ctx context.Context, session types.Account) (string, uint64, error) {
	sessionAddr := session.PublicKey.ToBase58()

	usdcRaw, err := c.USDCBalance(ctx, sessionAddr)
	if err != nil {
		return "", 0, err
	}
	lamports, err := c.SOLBalance(ctx, sessionAddr)
	if err != nil {
		return "", 0, err
	}
	if usdcRaw == 0 && lamports == 0 {
		return "", 0, fmt.Errorf("nothing to sweep from %s", sessionAddr)
	}

	var instructions []types.Instruction

	if usdcRaw > 0 {
		sourceATA, _, err := common.FindAssociatedTokenAddress(session.PublicKey, c.usdcMint)
		if err != nil {
			return "", 0, fmt.Errorf("derive source token account: %w", err)
		}
		masterATA, _, err := common.FindAssociatedTokenAddress(c.master.PublicKey, c.usdcMint)
		if err != nil {
			return "", 0, fmt.Errorf("derive master token account: %w", err)
		}

		// Create the master ATA on first sweep.
		if _, err := c.rpc.GetTokenAccountBalance(ctx, masterATA.ToBase58()); err != nil {
			if !isAccountNotFound(err) {
				return "", 0, fmt.Errorf("check master token account: %w", err)
			}
			instructions = append(instructions, associated_token_account.CreateAssociatedTokenAccount(
				associated_token_account.CreateAssociatedTokenAccountParam{
					Funder:                 c.master.PublicKey,
					Owner:                  c.master.PublicKey,
					Mint:                   c.usdcMint,
					AssociatedTokenAccount: masterATA,
				},
			))
		}

		instructions = append(instructions, token.TransferChecked(token.TransferCheckedParam{
			From:     sourceATA,
			To:       masterATA,
			Mint:     c.usdcMint,
			Auth:     session.PublicKey,
			Amount:   usdcRaw,
			Decimals: USDCDecimals,
		}))
	}

	if lamports > 0 {
		instructions = append(instructions, system.Transfer(system.TransferParam{
			From:   session.PublicKey,
			To:     c.master.PublicKey,
			Amount: lamports,
		}))
	}

	sig, err := c.broadcast(ctx, instructions, []types.Account{c.master, session})
	if err != nil {
		return "", 0, fmt.Errorf("sweep broadcast: %w", err)
	}

	c.log.Info("swept session wallet",
		zap.String("session_wallet", sessionAddr),
		zap.Uint64("usdc_raw", usdcRaw),
		zap.Uint64("lamports", lamports),
		zap.String("signature", sig),
	)
	return sig, usdcRaw, nil
}

// broadcast signs and submits one transaction. Callers hold no lock; the
// blockhash fetch and the submit happen under broadcastMu so master-signed
// transactions go out one at a time.
func (c *ChainClient) broadcast(ctx context.Context, instructions []types.Instruction, signers []types.Account) (string, error) {
	c.broadcastMu.Lock()
	defer c.broadcastMu.Unlock()

	recent, err := c.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: signers,
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        c.master.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions:    instructions,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	sig, err := c.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

func isAccountNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "could not find account")
}
