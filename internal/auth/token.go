// Package auth mints and verifies the bearer tokens exchanged between the
// explorer and its local analysis backend. Both sides hold the same shared
// secret; tokens are short-lived HS256 JWTs.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Subject identifies explorer clients in issued tokens.
const Subject = "trajectory-explorer"

// TokenTTL bounds how long a minted token is accepted.
const TokenTTL = 5 * time.Minute

// ErrNoSecret is returned when minting without a configured secret.
var ErrNoSecret = errors.New("no shared secret configured")

// Mint signs a token valid from now for TokenTTL.
func Mint(secret []byte, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoSecret
	}
	claims := jwt.RegisteredClaims{
		Subject:   Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature, algorithm, validity window and subject of
// token.
func Verify(secret []byte, token string) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(Subject),
	)
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	return nil
}
