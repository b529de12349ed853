package solana

import (
	"bytes"
	"testing"
)

func testSeed() []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return seed
}

func TestNewDeriverRejectsShortSeed(t *testing.T) {
	if _, err := NewDeriver(make([]byte, 15)); err == nil {
		t.Fatal("expected error for 15-byte seed")
	}
	if _, err := NewDeriver(make([]byte, 16)); err != nil {
		t.Fatalf("unexpected error for 16-byte seed: %v", err)
	}
}

func TestDerivationIsDeterministic(t *testing.T) {
	d1, err := NewDeriver(testSeed())
	if err != nil {
		t.Fatal(err)
	}
	d2, err := NewDeriver(testSeed())
	if err != nil {
		t.Fatal(err)
	}

	for _, index := range []uint32{0, 1, 42, 1 << 20} {
		a1, err := d1.SessionAddress(index)
		if err != nil {
			t.Fatalf("SessionAddress(%d): %v", index, err)
		}
		a2, err := d2.SessionAddress(index)
		if err != nil {
			t.Fatalf("SessionAddress(%d): %v", index, err)
		}
		if a1 != a2 {
			t.Errorf("index %d derived different addresses: %s vs %s", index, a1, a2)
		}
	}
}

func TestDistinctIndicesDistinctAddresses(t *testing.T) {
	d, err := NewDeriver(testSeed())
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]uint32)
	for index := uint32(0); index < 50; index++ {
		addr, err := d.SessionAddress(index)
		if err != nil {
			t.Fatalf("SessionAddress(%d): %v", index, err)
		}
		if prev, ok := seen[addr]; ok {
			t.Fatalf("indices %d and %d derived the same address %s", prev, index, addr)
		}
		seen[addr] = index
	}
}

func TestMasterDistinctFromSessions(t *testing.T) {
	d, err := NewDeriver(testSeed())
	if err != nil {
		t.Fatal(err)
	}

	master, err := d.MasterAccount()
	if err != nil {
		t.Fatal(err)
	}
	masterAddr := master.PublicKey.ToBase58()

	for index := uint32(0); index < 10; index++ {
		addr, err := d.SessionAddress(index)
		if err != nil {
			t.Fatal(err)
		}
		if addr == masterAddr {
			t.Fatalf("session index %d collides with the master address", index)
		}
	}
}

func TestDifferentSeedsDifferentKeys(t *testing.T) {
	other := testSeed()
	other[0] ^= 0xff

	d1, _ := NewDeriver(testSeed())
	d2, _ := NewDeriver(other)

	a1, err := d1.SessionAccount(0)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := d2.SessionAccount(0)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a1.PrivateKey, a2.PrivateKey) {
		t.Fatal("different seeds derived the same private key")
	}
}
