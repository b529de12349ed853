package models

import (
	"time"

	"github.com/google/uuid"
)

// MintRecord is the durable copy of a finalized session. Sessions expire out
// of redis with their TTL; the ledger row keeps the on-chain artifacts.
type MintRecord struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      string     `json:"session_id"`
	SessionIndex   uint32     `json:"session_index"`
	PaymentAddress string     `json:"payment_address"`
	BuyerWallet    string     `json:"buyer_wallet"`
	MintAddress    string     `json:"mint_address"`
	MintSignature  string     `json:"mint_signature"`
	MetadataURI    string     `json:"metadata_uri"`
	AmountUSDC     string     `json:"amount_usdc"`
	SweepSignature *string    `json:"sweep_signature,omitempty"`
	SweptAt        *time.Time `json:"swept_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
