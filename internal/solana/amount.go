package solana

import (
	"fmt"
	"math/big"
	"strings"
)

// USDCDecimals is the SPL USDC mint precision.
const USDCDecimals = 6

// ParseUSDC converts a decimal USDC string (e.g. "5" or "4.999999") to raw
// 6-decimal token units. Extra fractional digits are truncated.
func ParseUSDC(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty USDC amount")
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid USDC amount: %s", s)
	}

	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}

	if len(frac) > USDCDecimals {
		frac = frac[:USDCDecimals]
	}
	for len(frac) < USDCDecimals {
		frac += "0"
	}

	raw, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok || raw.Sign() < 0 {
		return 0, fmt.Errorf("invalid USDC amount: %s", s)
	}
	if !raw.IsUint64() {
		return 0, fmt.Errorf("USDC amount out of range: %s", s)
	}
	return raw.Uint64(), nil
}

// FormatUSDC renders raw token units as a decimal string without trailing
// zeros ("5000000" -> "5", "4999999" -> "4.999999").
func FormatUSDC(raw uint64) string {
	whole := raw / 1_000_000
	frac := raw % 1_000_000
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	s := strings.TrimRight(fmt.Sprintf("%06d", frac), "0")
	return fmt.Sprintf("%d.%s", whole, s)
}

// USDCToFloat is for response payloads only; accounting stays in raw units.
func USDCToFloat(raw uint64) float64 {
	return float64(raw) / 1_000_000
}

// LamportsToSOL is for response payloads only.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / 1_000_000_000
}
