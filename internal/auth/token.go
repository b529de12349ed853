package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ops tokens gate the recovery/diagnostic endpoints. HS256, short-lived,
// issued out of band by cmd/ops-token. The static recovery secret remains as
// a legacy fallback (see middleware.OpsAuth).
type OpsClaims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

func GenerateOpsToken(secret, operator string, expiration time.Duration) (string, error) {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	claims := OpsClaims{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "nft-checkout",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseOpsToken(secret, tokenStr string) (*OpsClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &OpsClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*OpsClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
