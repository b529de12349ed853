package models

import (
	"fmt"
	"time"
)

// Session statuses. The lifecycle is forward-only.
const (
	SessionStatusPending = "pending"
	SessionStatusPaid    = "paid"
	SessionStatusMinted  = "minted"
)

// Output types
const (
	OutputTypePhoto = "photo"
	OutputTypeVideo = "video"
)

// Valid state transitions: from -> []to
var ValidSessionTransitions = map[string][]string{
	SessionStatusPending: {SessionStatusPaid},
	SessionStatusPaid:    {SessionStatusMinted},
	SessionStatusMinted:  {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidSessionTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func IsValidOutputType(t string) bool {
	return t == OutputTypePhoto || t == OutputTypeVideo
}

// SessionMetadata travels with the session from checkout to mint.
type SessionMetadata struct {
	Mode    string            `json:"mode,omitempty"`
	Speed   string            `json:"speed,omitempty"`
	FileURI string            `json:"file_uri"` // ipfs://<cid>
	Answers map[string]string `json:"answers,omitempty"`
}

// Session is one buyer-facing minting attempt. Stored as JSON in redis under
// session:<id> with a TTL; the payment address is recomputable from
// SessionIndex alone, which is what makes the recovery scan possible.
type Session struct {
	SessionID      string          `json:"session_id"` // sess_<index>_<epochMillis>
	SessionIndex   uint32          `json:"session_index"`
	PaymentAddress string          `json:"payment_address"` // base58
	OutputType     string          `json:"output_type"`     // photo / video
	Metadata       SessionMetadata `json:"metadata"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	RequiredUSDC   string          `json:"required_usdc"` // decimal as string
	BuyerWallet    string          `json:"buyer_wallet"`

	// Populated on finalization only.
	MintAddress    *string `json:"mint_address,omitempty"`
	MintSignature  *string `json:"mint_signature,omitempty"`
	SweepSignature *string `json:"sweep_signature,omitempty"`
}

// NewSessionID builds the canonical session id for an index.
func NewSessionID(index uint32, now time.Time) string {
	return fmt.Sprintf("sess_%d_%d", index, now.UnixMilli())
}
