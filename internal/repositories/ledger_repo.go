package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nft-checkout/backend/internal/models"
)

// LedgerRepo archives finalized sessions to postgres. Redis records expire
// with their TTL; ledger rows are the durable record of what was minted,
// for whom, and whether the funds were swept.
type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

func (r *LedgerRepo) Insert(ctx context.Context, m *models.MintRecord) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO mint_ledger (session_id, session_index, payment_address, buyer_wallet,
		                         mint_address, mint_signature, metadata_uri, amount_usdc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, m.SessionID, m.SessionIndex, m.PaymentAddress, m.BuyerWallet,
		m.MintAddress, m.MintSignature, m.MetadataURI, m.AmountUSDC).Scan(&m.ID, &m.CreatedAt)
}

func (r *LedgerRepo) MarkSwept(ctx context.Context, sessionID, sweepSignature string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE mint_ledger SET sweep_signature = $1, swept_at = now()
		WHERE session_id = $2 AND sweep_signature IS NULL
	`, sweepSignature, sessionID)
	return err
}

func (r *LedgerRepo) ListRecent(ctx context.Context, limit int) ([]models.MintRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, session_index, payment_address, buyer_wallet,
		       mint_address, mint_signature, metadata_uri, amount_usdc,
		       sweep_signature, swept_at, created_at
		FROM mint_ledger ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMintRecords(rows)
}

// ListUnswept returns minted sessions whose funds are still sitting in the
// derived wallet (sweep worker input).
func (r *LedgerRepo) ListUnswept(ctx context.Context, olderThan time.Duration, limit int) ([]models.MintRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, session_index, payment_address, buyer_wallet,
		       mint_address, mint_signature, metadata_uri, amount_usdc,
		       sweep_signature, swept_at, created_at
		FROM mint_ledger
		WHERE sweep_signature IS NULL AND created_at < now() - make_interval(secs => $1)
		ORDER BY created_at ASC LIMIT $2
	`, olderThan.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMintRecords(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMintRecords(rows pgxRows) ([]models.MintRecord, error) {
	var records []models.MintRecord
	for rows.Next() {
		var m models.MintRecord
		if err := rows.Scan(&m.ID, &m.SessionID, &m.SessionIndex, &m.PaymentAddress, &m.BuyerWallet,
			&m.MintAddress, &m.MintSignature, &m.MetadataURI, &m.AmountUSDC,
			&m.SweepSignature, &m.SweptAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, m)
	}
	return records, rows.Err()
}
