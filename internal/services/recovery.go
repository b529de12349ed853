package services

import (
	"context"
	"errors"
	"time"

	"github.com/nft-checkout/backend/internal/models"
	"github.com/nft-checkout/backend/internal/solana"
	"go.uber.org/zap"
)

// RecoverResult reports the outcome of a manual re-trigger.
type RecoverResult struct {
	SessionID  string
	Status     string
	Triggered  bool
	Diagnostic string
	Advance    *AdvanceResult
}

// Recover re-enters the lifecycle for one stuck session, out of band.
// Minted sessions and underfunded wallets come back as diagnostics, not
// errors; only a funded, unfinished session actually re-triggers.
func (s *SessionService) Recover(ctx context.Context, sessionID string) (*RecoverResult, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == models.SessionStatusMinted {
		res := &RecoverResult{
			SessionID:  sessionID,
			Status:     session.Status,
			Diagnostic: "already minted, nothing to recover",
		}
		if session.SweepSignature == nil {
			// Funds may still be in the derived wallet; retry just the sweep.
			if _, err := s.sweepSession(ctx, session); err != nil {
				res.Diagnostic = "minted but sweep still failing"
				s.log.Warn("recovery sweep failed",
					zap.String("session_id", sessionID),
					zap.Error(err),
				)
			} else {
				res.Diagnostic = "minted, sweep recovered"
				res.Triggered = true
			}
		}
		return res, nil
	}

	requiredRaw, err := solana.ParseUSDC(session.RequiredUSDC)
	if err != nil {
		return nil, err
	}
	balanceRaw, err := s.chain.USDCBalance(ctx, session.PaymentAddress)
	if err != nil {
		return nil, upstream("solana", err)
	}
	if balanceRaw < requiredRaw {
		return &RecoverResult{
			SessionID:  sessionID,
			Status:     session.Status,
			Diagnostic: "balance below required, nothing to trigger",
		}, nil
	}

	advance, err := s.Advance(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &RecoverResult{
		SessionID: sessionID,
		Status:    advance.Status,
		Triggered: true,
		Advance:   advance,
	}, nil
}

// ScanResult is one derived wallet still holding USDC.
type ScanResult struct {
	SessionIndex uint32  `json:"session_index"`
	Address      string  `json:"address"`
	USDC         float64 `json:"usdc"`
}

// ScanUnswept walks the last `window` derivation indices and reports wallets
// with a non-zero USDC balance. Read-only: wallets are recomputed from the
// seed, nothing in the store is touched.
func (s *SessionService) ScanUnswept(ctx context.Context, window int) (scanned int, results []ScanResult, err error) {
	current, err := s.store.CurrentIndex(ctx)
	if err != nil {
		return 0, nil, upstream("store", err)
	}
	if current == 0 {
		return 0, nil, nil
	}

	start := uint32(1)
	if current > uint32(window) {
		start = current - uint32(window) + 1
	}

	for index := start; index <= current; index++ {
		address, err := s.deriver.SessionAddress(index)
		if err != nil {
			return scanned, results, err
		}
		balance, err := s.chain.USDCBalance(ctx, address)
		if err != nil {
			return scanned, results, upstream("solana", err)
		}
		scanned++
		if balance > 0 {
			results = append(results, ScanResult{
				SessionIndex: index,
				Address:      address,
				USDC:         solana.USDCToFloat(balance),
			})
		}
	}
	return scanned, results, nil
}

// RetrySweeps drains the unswept set and the ledger backlog. Called by the
// sweep worker when SWEEP_RECOVERY_MODE=background.
func (s *SessionService) RetrySweeps(ctx context.Context) {
	ids, err := s.store.ListUnswept(ctx)
	if err != nil {
		s.log.Error("failed to list unswept sessions", zap.Error(err))
	}
	for _, id := range ids {
		session, err := s.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				// Expired out of redis; the ledger pass below still covers it.
				_ = s.store.ClearUnswept(ctx, id)
			}
			continue
		}
		if _, err := s.sweepSession(ctx, session); err != nil {
			s.log.Warn("sweep retry failed", zap.String("session_id", id), zap.Error(err))
		}
	}

	records, err := s.ledger.ListUnswept(ctx, 10*time.Minute, 50)
	if err != nil {
		s.log.Error("failed to list unswept ledger rows", zap.Error(err))
		return
	}
	for _, record := range records {
		account, err := s.deriver.SessionAccount(record.SessionIndex)
		if err != nil {
			s.log.Error("failed to derive wallet for ledger row",
				zap.String("session_id", record.SessionID), zap.Error(err))
			continue
		}
		balance, err := s.chain.USDCBalance(ctx, record.PaymentAddress)
		if err != nil || balance == 0 {
			continue
		}
		sig, _, err := s.chain.SweepToMaster(ctx, account)
		if err != nil {
			s.log.Warn("ledger sweep retry failed",
				zap.String("session_id", record.SessionID), zap.Error(err))
			continue
		}
		if err := s.ledger.MarkSwept(ctx, record.SessionID, sig); err != nil {
			s.log.Error("failed to record ledger sweep",
				zap.String("session_id", record.SessionID), zap.Error(err))
		}
	}
}

// MasterStatus describes the master wallet's ability to pay fees.
type MasterStatus struct {
	MasterAddress  string  `json:"master_address"`
	SOLBalance     float64 `json:"sol_balance"`
	SOLBalanceRaw  uint64  `json:"sol_balance_raw"`
	Funded         bool    `json:"funded"`
	Recommendation string  `json:"recommendation"`
}

// minMasterLamports is the SOL the master wallet should hold to cover mint
// rent and transaction fees.
const minMasterLamports = 50_000_000 // 0.05 SOL

func (s *SessionService) MasterStatus(ctx context.Context) (*MasterStatus, error) {
	address := s.chain.MasterAddress()
	lamports, err := s.chain.SOLBalance(ctx, address)
	if err != nil {
		return nil, upstream("solana", err)
	}

	status := &MasterStatus{
		MasterAddress: address,
		SOLBalance:    solana.LamportsToSOL(lamports),
		SOLBalanceRaw: lamports,
		Funded:        lamports >= minMasterLamports,
	}
	if status.Funded {
		status.Recommendation = "master wallet funded"
	} else {
		status.Recommendation = "send at least 0.05 SOL to the master wallet to cover mint rent and fees"
	}
	return status, nil
}

// ForceMint skips the payment check and runs the finalization path. Only
// reachable through the test endpoint, which is mounted solely when
// ENABLE_TEST_ENDPOINTS is set.
func (s *SessionService) ForceMint(ctx context.Context, sessionID string) (*AdvanceResult, error) {
	return s.advance(ctx, sessionID, true)
}
