package solana

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeMasterSeed accepts the two formats operators actually have on hand:
// a hex-encoded seed (32 or 64 bytes), or a solana-keygen keypair file body
// ("[12,34,...]", 64 bytes, of which the first 32 are the ed25519 seed).
func DecodeMasterSeed(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("master seed is empty")
	}

	if strings.HasPrefix(raw, "[") {
		return decodeKeypairJSON(raw)
	}

	seed, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("master seed is neither keypair JSON nor hex: %w", err)
	}
	if len(seed) != 32 && len(seed) != 64 {
		return nil, fmt.Errorf("unexpected seed length %d, want 32 or 64 bytes", len(seed))
	}
	return seed[:32], nil
}

// decodeKeypairJSON parses the solana-keygen [u8;64] array format.
func decodeKeypairJSON(raw string) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal([]byte(raw), &ints); err != nil {
		return nil, fmt.Errorf("invalid keypair JSON: %w", err)
	}
	if len(ints) != 64 {
		return nil, fmt.Errorf("keypair JSON has %d bytes, want 64", len(ints))
	}
	out := make([]byte, 32)
	for i := 0; i < 32; i++ {
		if ints[i] < 0 || ints[i] > 255 {
			return nil, fmt.Errorf("keypair JSON byte %d out of range: %d", i, ints[i])
		}
		out[i] = byte(ints[i])
	}
	return out, nil
}
