package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/nft-checkout/backend/internal/config"
	"github.com/nft-checkout/backend/internal/events"
	"github.com/nft-checkout/backend/internal/models"
	"github.com/nft-checkout/backend/internal/pinning"
	"github.com/nft-checkout/backend/internal/solana"
	"go.uber.org/zap"
)

// mintLockTTL bounds how long a crashed lifecycle invocation can hold the
// per-session mint lock before recovery can re-enter.
const mintLockTTL = 2 * time.Minute

// SessionStore is the slice of the redis repo the lifecycle needs.
type SessionStore interface {
	NextIndex(ctx context.Context) (uint32, error)
	CurrentIndex(ctx context.Context) (uint32, error)
	Create(ctx context.Context, s *models.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.Session, error)
	CompareAndSetStatus(ctx context.Context, fromStatus string, s *models.Session) (bool, error)
	UpdateInPlace(ctx context.Context, s *models.Session) error
	AcquireMintLock(ctx context.Context, id string, ttl time.Duration) (bool, error)
	ReleaseMintLock(ctx context.Context, id string)
	RemovePending(ctx context.Context, id string) error
	MarkUnswept(ctx context.Context, id string) error
	ClearUnswept(ctx context.Context, id string) error
	ListUnswept(ctx context.Context) ([]string, error)
}

// Chain is the slice of the solana client the lifecycle needs.
type Chain interface {
	MasterAddress() string
	USDCBalance(ctx context.Context, owner string) (uint64, error)
	SOLBalance(ctx context.Context, owner string) (uint64, error)
	SweepToMaster(ctx context.Context, session types.Account) (string, uint64, error)
	MintNFT(ctx context.Context, params solana.MintParams) (*solana.MintResult, error)
}

// Pinner is the slice of the pinning client the lifecycle needs.
type Pinner interface {
	PinJSON(ctx context.Context, name string, content any) (*pinning.PinResult, error)
	GatewayURL(cid string) string
}

// Ledger archives finalized sessions durably.
type Ledger interface {
	Insert(ctx context.Context, m *models.MintRecord) error
	MarkSwept(ctx context.Context, sessionID, sweepSignature string) error
	ListUnswept(ctx context.Context, olderThan time.Duration, limit int) ([]models.MintRecord, error)
}

// SessionService owns the session lifecycle: create on checkout, advance on
// poll (payment detection -> mint -> sweep), recover out of band. Status moves
// pending -> paid -> minted, never backwards; the paid transition is a
// compare-and-set and the mint runs under a per-session lock, so concurrent
// invocations produce at most one mint broadcast.
type SessionService struct {
	store     SessionStore
	chain     Chain
	pinner    Pinner
	ledger    Ledger
	deriver   *solana.Deriver
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewSessionService(
	store SessionStore,
	chain Chain,
	pinner Pinner,
	ledger Ledger,
	deriver *solana.Deriver,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *SessionService {
	return &SessionService{
		store:     store,
		chain:     chain,
		pinner:    pinner,
		ledger:    ledger,
		deriver:   deriver,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

type CreateSessionInput struct {
	OutputType  string
	BuyerWallet string
	Metadata    models.SessionMetadata
}

func (s *SessionService) CreateSession(ctx context.Context, in CreateSessionInput) (*models.Session, error) {
	if !models.IsValidOutputType(in.OutputType) {
		return nil, fmt.Errorf("invalid output type %q, must be photo or video", in.OutputType)
	}
	if in.Metadata.FileURI == "" {
		return nil, fmt.Errorf("metadata file_uri is required")
	}

	requiredRaw, err := solana.ParseUSDC(s.cfg.RequiredUSDC)
	if err != nil {
		return nil, fmt.Errorf("configured REQUIRED_USDC is invalid: %w", err)
	}

	index, err := s.store.NextIndex(ctx)
	if err != nil {
		return nil, upstream("store", err)
	}

	paymentAddress, err := s.deriver.SessionAddress(index)
	if err != nil {
		return nil, fmt.Errorf("derive payment address for index %d: %w", index, err)
	}

	now := time.Now().UTC()
	session := &models.Session{
		SessionID:      models.NewSessionID(index, now),
		SessionIndex:   index,
		PaymentAddress: paymentAddress,
		OutputType:     in.OutputType,
		Metadata:       in.Metadata,
		Status:         models.SessionStatusPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.cfg.SessionTTL),
		RequiredUSDC:   solana.FormatUSDC(requiredRaw),
		BuyerWallet:    in.BuyerWallet,
	}

	if err := s.store.Create(ctx, session, s.cfg.SessionTTL); err != nil {
		return nil, upstream("store", err)
	}

	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventSessionCreated,
		Payload: map[string]any{
			"session_id":      session.SessionID,
			"payment_address": paymentAddress,
			"required_usdc":   session.RequiredUSDC,
		},
	})

	s.log.Info("session created",
		zap.String("session_id", session.SessionID),
		zap.Uint32("index", index),
		zap.String("payment_address", paymentAddress),
	)
	return session, nil
}

// GetSession reads the stored record without advancing anything.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.store.Get(ctx, sessionID)
}

// AdvanceResult reports the outcome of one lifecycle step.
type AdvanceResult struct {
	SessionID      string
	Status         string
	AlreadyMinted  bool
	Insufficient   bool
	InProgress     bool
	BalanceUSDC    float64
	RequiredUSDC   float64
	MintAddress    string
	MintSignature  string
	SweepSignature string
	SweepPending   bool
}

// Advance is the poll entry point: checks payment and, once the wallet holds
// at least the required amount, runs the mint-and-sweep finalization exactly
// once. Re-invoking on a minted session is idempotent and broadcasts nothing.
func (s *SessionService) Advance(ctx context.Context, sessionID string) (*AdvanceResult, error) {
	return s.advance(ctx, sessionID, false)
}

func (s *SessionService) advance(ctx context.Context, sessionID string, skipBalanceCheck bool) (*AdvanceResult, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == models.SessionStatusMinted {
		_ = s.store.RemovePending(ctx, sessionID)
		return mintedResult(session), nil
	}

	requiredRaw, err := solana.ParseUSDC(session.RequiredUSDC)
	if err != nil {
		return nil, fmt.Errorf("session %s has invalid required amount %q: %w", sessionID, session.RequiredUSDC, err)
	}

	var balanceRaw uint64
	if skipBalanceCheck {
		balanceRaw = requiredRaw
	} else {
		balanceRaw, err = s.chain.USDCBalance(ctx, session.PaymentAddress)
		if err != nil {
			return nil, upstream("solana", err)
		}
	}

	if balanceRaw < requiredRaw {
		// No state change; the caller polls again later.
		return &AdvanceResult{
			SessionID:    sessionID,
			Status:       session.Status,
			Insufficient: true,
			BalanceUSDC:  solana.USDCToFloat(balanceRaw),
			RequiredUSDC: solana.USDCToFloat(requiredRaw),
		}, nil
	}

	if session.Status == models.SessionStatusPending {
		paid := *session
		paid.Status = models.SessionStatusPaid
		won, err := s.store.CompareAndSetStatus(ctx, models.SessionStatusPending, &paid)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				return nil, err
			}
			return nil, upstream("store", err)
		}
		if !won {
			// Someone else moved it; report where it landed.
			current, err := s.store.Get(ctx, sessionID)
			if err != nil {
				return nil, err
			}
			if current.Status == models.SessionStatusMinted {
				return mintedResult(current), nil
			}
			return &AdvanceResult{SessionID: sessionID, Status: current.Status, InProgress: true}, nil
		}
		session = &paid

		_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
			Type: events.EventPaymentReceived,
			Payload: map[string]any{
				"session_id":   sessionID,
				"balance_usdc": solana.USDCToFloat(balanceRaw),
			},
		})
		s.publishStatus(ctx, sessionID, models.SessionStatusPending, models.SessionStatusPaid)
	}

	return s.finalize(ctx, session, requiredRaw)
}

// finalize runs the mint and the sweep for a paid session. Caller guarantees
// status is paid; the mint lock keeps re-entries (recovery, watcher, a second
// poll) from double-minting.
func (s *SessionService) finalize(ctx context.Context, session *models.Session, requiredRaw uint64) (*AdvanceResult, error) {
	locked, err := s.store.AcquireMintLock(ctx, session.SessionID, mintLockTTL)
	if err != nil {
		return nil, upstream("store", err)
	}
	if !locked {
		return &AdvanceResult{SessionID: session.SessionID, Status: session.Status, InProgress: true}, nil
	}
	// Release with a detached context: if the caller disconnects mid-finalize
	// the lock must still come off, or retries stall for the full lock TTL.
	defer s.store.ReleaseMintLock(context.Background(), session.SessionID)

	// Re-read under the lock; a previous holder may have finished.
	current, err := s.store.Get(ctx, session.SessionID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.SessionStatusMinted {
		_ = s.store.RemovePending(ctx, session.SessionID)
		return mintedResult(current), nil
	}
	session = current

	metadataURI, err := s.pinMetadata(ctx, session)
	if err != nil {
		return nil, upstream("pinning", err)
	}

	mintResult, err := s.chain.MintNFT(ctx, solana.MintParams{
		OwnerWallet:    session.BuyerWallet,
		Name:           fmt.Sprintf("%s #%d", s.cfg.NFTNamePrefix, session.SessionIndex),
		Symbol:         s.cfg.NFTSymbol,
		MetadataURI:    metadataURI,
		CollectionMint: s.cfg.CollectionMint,
	})
	if err != nil {
		return nil, upstream("solana", err)
	}

	minted := *session
	minted.Status = models.SessionStatusMinted
	minted.MintAddress = &mintResult.MintAddress
	minted.MintSignature = &mintResult.Signature
	if _, err := s.store.CompareAndSetStatus(ctx, session.Status, &minted); err != nil {
		// The mint already broadcast; losing the record write is worse than
		// the request failing, so log loudly and keep going.
		s.log.Error("failed to record mint on session",
			zap.String("session_id", session.SessionID),
			zap.String("mint_address", mintResult.MintAddress),
			zap.Error(err),
		)
	}
	_ = s.store.RemovePending(ctx, session.SessionID)

	if err := s.ledger.Insert(ctx, &models.MintRecord{
		SessionID:      session.SessionID,
		SessionIndex:   session.SessionIndex,
		PaymentAddress: session.PaymentAddress,
		BuyerWallet:    session.BuyerWallet,
		MintAddress:    mintResult.MintAddress,
		MintSignature:  mintResult.Signature,
		MetadataURI:    metadataURI,
		AmountUSDC:     solana.FormatUSDC(requiredRaw),
	}); err != nil {
		s.log.Error("failed to archive mint to ledger",
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
	}

	s.publishStatus(ctx, session.SessionID, models.SessionStatusPaid, models.SessionStatusMinted)
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventMintCompleted,
		Payload: map[string]any{
			"session_id":   session.SessionID,
			"mint_address": mintResult.MintAddress,
			"signature":    mintResult.Signature,
		},
	})

	result := mintedResult(&minted)
	result.AlreadyMinted = false

	sweepSig, err := s.sweepSession(ctx, &minted)
	if err != nil {
		// Accepted terminal state: minted with a null sweep signature. The
		// sweep worker (or /recover) picks it up from the unswept set.
		s.log.Warn("sweep failed after mint, queued for retry",
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
		_ = s.store.MarkUnswept(ctx, session.SessionID)
		result.SweepPending = true
		return result, nil
	}
	result.SweepSignature = sweepSig
	return result, nil
}

// sweepSession moves the session wallet's funds to the master wallet and
// backfills the signature on the session record and the ledger row.
func (s *SessionService) sweepSession(ctx context.Context, session *models.Session) (string, error) {
	account, err := s.deriver.SessionAccount(session.SessionIndex)
	if err != nil {
		return "", err
	}

	sig, sweptRaw, err := s.chain.SweepToMaster(ctx, account)
	if err != nil {
		return "", err
	}

	session.SweepSignature = &sig
	if err := s.store.UpdateInPlace(ctx, session); err != nil && !errors.Is(err, ErrSessionNotFound) {
		s.log.Error("failed to record sweep on session",
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
	}
	if err := s.ledger.MarkSwept(ctx, session.SessionID, sig); err != nil {
		s.log.Error("failed to record sweep in ledger",
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
	}
	_ = s.store.ClearUnswept(ctx, session.SessionID)

	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventSweepCompleted,
		Payload: map[string]any{
			"session_id": session.SessionID,
			"signature":  sig,
			"usdc":       solana.USDCToFloat(sweptRaw),
		},
	})
	return sig, nil
}

// pinMetadata composes and pins the NFT metadata document, returning its
// gateway URL (wallets do not all resolve ipfs:// URIs).
func (s *SessionService) pinMetadata(ctx context.Context, session *models.Session) (string, error) {
	imageCID := strings.TrimPrefix(session.Metadata.FileURI, "ipfs://")

	attributes := []map[string]any{
		{"trait_type": "output_type", "value": session.OutputType},
	}
	if session.Metadata.Mode != "" {
		attributes = append(attributes, map[string]any{"trait_type": "mode", "value": session.Metadata.Mode})
	}
	if session.Metadata.Speed != "" {
		attributes = append(attributes, map[string]any{"trait_type": "speed", "value": session.Metadata.Speed})
	}
	for k, v := range session.Metadata.Answers {
		attributes = append(attributes, map[string]any{"trait_type": k, "value": v})
	}

	doc := map[string]any{
		"name":       fmt.Sprintf("%s #%d", s.cfg.NFTNamePrefix, session.SessionIndex),
		"symbol":     s.cfg.NFTSymbol,
		"image":      s.pinner.GatewayURL(imageCID),
		"attributes": attributes,
	}

	pinned, err := s.pinner.PinJSON(ctx, session.SessionID+"-metadata", doc)
	if err != nil {
		return "", err
	}
	return s.pinner.GatewayURL(pinned.CID), nil
}

func (s *SessionService) publishStatus(ctx context.Context, sessionID, from, to string) {
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventSessionStatusChanged,
		Payload: map[string]any{
			"session_id": sessionID,
			"old_status": from,
			"new_status": to,
		},
	})
}

func mintedResult(session *models.Session) *AdvanceResult {
	r := &AdvanceResult{
		SessionID:     session.SessionID,
		Status:        models.SessionStatusMinted,
		AlreadyMinted: true,
	}
	if session.MintAddress != nil {
		r.MintAddress = *session.MintAddress
	}
	if session.MintSignature != nil {
		r.MintSignature = *session.MintSignature
	}
	if session.SweepSignature != nil {
		r.SweepSignature = *session.SweepSignature
	} else {
		r.SweepPending = true
	}
	return r
}
