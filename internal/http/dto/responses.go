package dto

import "time"

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type UploadResponse struct {
	Success    bool   `json:"success"`
	FileURI    string `json:"file_uri"`
	CID        string `json:"cid"`
	MimeType   string `json:"mime_type"`
	OutputType string `json:"output_type"`
}

type CheckoutResponse struct {
	SessionID      string    `json:"session_id"`
	PaymentAddress string    `json:"payment_address"`
	RequiredUSDC   string    `json:"required_usdc"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// PollResponse reports the session after one lifecycle step. Balance and
// Required are set only on the insufficient-balance outcome.
type PollResponse struct {
	SessionID      string   `json:"session_id"`
	Status         string   `json:"status"`
	Balance        *float64 `json:"balance,omitempty"`
	Required       *float64 `json:"required,omitempty"`
	MintAddress    string   `json:"mint_address,omitempty"`
	MintSignature  string   `json:"mint_signature,omitempty"`
	SweepSignature string   `json:"sweep_signature,omitempty"`
	SweepPending   bool     `json:"sweep_pending,omitempty"`
	InProgress     bool     `json:"in_progress,omitempty"`
}

type RecoverScanResponse struct {
	Scanned         int `json:"scanned"`
	WalletsWithUSDC any `json:"wallets_with_usdc"`
}
