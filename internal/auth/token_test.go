package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestOpsTokenRoundTrip(t *testing.T) {
	token, err := GenerateOpsToken("secret", "alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateOpsToken: %v", err)
	}

	claims, err := ParseOpsToken("secret", token)
	if err != nil {
		t.Fatalf("ParseOpsToken: %v", err)
	}
	if claims.Operator != "alice" {
		t.Errorf("operator = %q, want alice", claims.Operator)
	}
	if claims.Issuer != "nft-checkout" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestOpsTokenWrongSecret(t *testing.T) {
	token, err := GenerateOpsToken("secret", "alice", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseOpsToken("other-secret", token); err == nil {
		t.Fatal("token accepted with the wrong secret")
	}
}

func TestOpsTokenExpired(t *testing.T) {
	claims := OpsClaims{
		Operator: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			Issuer:    "nft-checkout",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseOpsToken("secret", token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestOpsTokenDefaultsExpiry(t *testing.T) {
	// Zero or negative lifetimes fall back to 24h instead of minting a token
	// that is already dead.
	token, err := GenerateOpsToken("secret", "alice", 0)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseOpsToken("secret", token)
	if err != nil {
		t.Fatalf("ParseOpsToken: %v", err)
	}
	if time.Until(claims.ExpiresAt.Time) < 23*time.Hour {
		t.Errorf("default expiry too short: %s", claims.ExpiresAt.Time)
	}
}

func TestOpsTokenGarbage(t *testing.T) {
	if _, err := ParseOpsToken("secret", "not-a-jwt"); err == nil {
		t.Fatal("garbage token accepted")
	}
}
