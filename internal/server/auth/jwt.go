// Package auth issues and verifies the bearer tokens carried by deposit
// terminals (kiosk scales) when they submit deposits.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/ecopoints/internal/common"
)

const issuer = "ecopoints"

// TerminalClaims identifies the terminal a token was issued to.
type TerminalClaims struct {
	jwt.RegisteredClaims
	TerminalID string `json:"terminal_id"`
}

// GenerateTerminalToken signs an HS256 token for terminalID valid for
// validity. A non-positive validity yields a token that never expires.
func GenerateTerminalToken(terminalID string, secretKey []byte, validity time.Duration) (string, error) {
	if terminalID == "" || len(secretKey) == 0 {
		return "", common.ErrInvalidInput
	}
	now := time.Now()
	claims := TerminalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  terminalID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		TerminalID: terminalID,
	}
	if validity > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(validity))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ParseTerminalToken verifies tokenString and returns the terminal id.
// Expired tokens yield common.ErrTokenExpired; anything else that fails
// verification yields common.ErrInvalidToken.
func ParseTerminalToken(tokenString string, secretKey []byte) (string, error) {
	claims := &TerminalClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.TerminalID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.TerminalID, nil
}
