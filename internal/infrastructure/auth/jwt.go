// Package auth validates bearer credentials issued by an external
// identity provider. Token issuance is that provider's responsibility;
// this package only verifies signatures and extracts the caller's
// identity.
package auth

import (
	"fmt"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config holds JWT verification configuration.
type Config struct {
	Secret string
	Issuer string
}

// Claims is the identity carried by an inbound access token.
type Claims struct {
	UserID uuid.UUID
	Email  string
}

type accessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// Validator verifies bearer tokens against a shared secret.
type Validator struct {
	cfg Config
}

// NewValidator constructs a Validator from its configuration.
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate parses and verifies tokenString, returning the caller's identity.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.cfg.Secret), nil
	}, jwt.WithIssuer(v.cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, apierr.ErrInvalidToken
	}

	claims, ok := token.Claims.(*accessTokenClaims)
	if !ok || !token.Valid {
		return nil, apierr.ErrInvalidToken
	}

	return &Claims{UserID: claims.UserID, Email: claims.Email}, nil
}
