package services

import (
	"fmt"

	"github.com/nft-checkout/backend/internal/repositories"
)

// ErrSessionNotFound maps to 404 in handlers.
var ErrSessionNotFound = repositories.ErrSessionNotFound

// UpstreamError wraps a failure of one of the external collaborators so
// handlers can report which service fell over without parsing message text.
type UpstreamError struct {
	Service string // "solana", "pinning", "store", "ledger"
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream failure: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}
