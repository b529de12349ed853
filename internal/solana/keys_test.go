package solana

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
)

func TestDecodeMasterSeedHex(t *testing.T) {
	seed32 := strings.Repeat("ab", 32)
	got, err := DecodeMasterSeed(seed32)
	if err != nil {
		t.Fatalf("32-byte hex: %v", err)
	}
	want, _ := hex.DecodeString(seed32)
	if !bytes.Equal(got, want) {
		t.Error("32-byte hex seed not decoded verbatim")
	}

	// 64-byte hex keeps the first 32 bytes only.
	seed64 := strings.Repeat("ab", 32) + strings.Repeat("cd", 32)
	got, err = DecodeMasterSeed(seed64)
	if err != nil {
		t.Fatalf("64-byte hex: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("64-byte hex seed should truncate to the first 32 bytes")
	}
}

func TestDecodeMasterSeedKeypairJSON(t *testing.T) {
	parts := make([]string, 64)
	for i := range parts {
		parts[i] = fmt.Sprintf("%d", i)
	}
	raw := "[" + strings.Join(parts, ",") + "]"

	got, err := DecodeMasterSeed(raw)
	if err != nil {
		t.Fatalf("keypair JSON: %v", err)
	}
	if len(got) != 32 {
		t.Fatalf("got %d bytes, want 32", len(got))
	}
	for i := 0; i < 32; i++ {
		if got[i] != byte(i) {
			t.Fatalf("byte %d = %d, want %d", i, got[i], i)
		}
	}
}

func TestDecodeMasterSeedRejects(t *testing.T) {
	cases := []string{
		"",
		"zz",              // not hex
		"abcd",            // hex, wrong length
		"[1,2,3]",         // keypair too short
		"[1,2,\"x\"]",     // malformed JSON
		"[" + strings.Repeat("300,", 63) + "300]", // bytes out of range
	}

	for _, raw := range cases {
		if _, err := DecodeMasterSeed(raw); err == nil {
			t.Errorf("DecodeMasterSeed(%q) succeeded, want error", raw)
		}
	}
}
