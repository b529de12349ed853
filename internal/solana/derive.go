package solana

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/types"
)

// SLIP-0010 ed25519 derivation. Session wallets are a pure function of the
// master seed and the session index, so they can be recomputed without any
// stored state (recovery scan relies on this).
//
// Paths:
//
//	master:        m/44'/501'/0'
//	session index: m/44'/501'/1'/<index>'
const hardenedOffset uint32 = 0x80000000

// Deriver derives per-session keypairs from a single master seed.
type Deriver struct {
	seed []byte
}

func NewDeriver(seed []byte) (*Deriver, error) {
	if len(seed) < 16 {
		return nil, fmt.Errorf("master seed too short: %d bytes", len(seed))
	}
	return &Deriver{seed: seed}, nil
}

// MasterAccount returns the master wallet keypair (m/44'/501'/0').
func (d *Deriver) MasterAccount() (types.Account, error) {
	return d.accountAt([]uint32{44, 501, 0})
}

// SessionAccount returns the derived wallet for a session index
// (m/44'/501'/1'/<index>'). Deterministic: same index, same keypair.
func (d *Deriver) SessionAccount(index uint32) (types.Account, error) {
	return d.accountAt([]uint32{44, 501, 1, index})
}

// SessionAddress is SessionAccount reduced to the base58 public key.
func (d *Deriver) SessionAddress(index uint32) (string, error) {
	acc, err := d.SessionAccount(index)
	if err != nil {
		return "", err
	}
	return acc.PublicKey.ToBase58(), nil
}

func (d *Deriver) accountAt(path []uint32) (types.Account, error) {
	key, chain := masterKey(d.seed)
	for _, segment := range path {
		key, chain = childKey(key, chain, segment)
	}
	acc, err := types.AccountFromSeed(key)
	if err != nil {
		return types.Account{}, fmt.Errorf("account from derived seed: %w", err)
	}
	return acc, nil
}

func masterKey(seed []byte) (key, chainCode []byte) {
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

// childKey derives a hardened child (ed25519 supports hardened only).
func childKey(key, chainCode []byte, index uint32) ([]byte, []byte) {
	data := make([]byte, 0, 37)
	data = append(data, 0x00)
	data = append(data, key...)

	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index|hardenedOffset)
	data = append(data, idx[:]...)

	mac := hmac.New(sha512.New, chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}
