// Package auth verifies bearer tokens issued by the identity provider and
// turns them into a requester ID. The requester ID is the token subject.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that cannot be trusted.
var ErrInvalidToken = errors.New("invalid token")

// Verifier checks HS256-signed tokens against a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier for the given signing secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// UserID validates tokenString and returns its subject.
// Expired tokens, foreign algorithms and empty subjects are rejected.
func (v *Verifier) UserID(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("auth.Verifier.UserID: %w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Issue mints a token for userID that expires after ttl.
// Production tokens come from the identity provider; this exists for tests
// and local development.
func Issue(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	s, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth.Issue: %w", err)
	}
	return s, nil
}
