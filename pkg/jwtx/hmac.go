package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HS256 signs and verifies tokens with a shared secret. The mock inventory
// API uses it; the real API's signing scheme is opaque to the console.
type HS256 struct {
	secret []byte
	now    func() time.Time
}

// NewHS256 returns a signer/verifier for secret.
func NewHS256(secret []byte) *HS256 {
	return &HS256{secret: secret, now: time.Now}
}

// Sign serialises claims into a compact JWT.
func (h *HS256) Sign(c Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	s, err := tok.SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return s, nil
}

// Verify checks signature, expiry and token type.
func (h *HS256) Verify(token string, want TokenType) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return h.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrInvalidSig
	default:
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateExpiry(h.now()); err != nil {
		return Claims{}, err
	}
	if claims.TokenType != want {
		return Claims{}, ErrWrongTokenType
	}
	return claims, nil
}
