// Package auth guards the mutating pantry routes with signed tokens.
//
// Tokens are HS256 JWTs whose subject names the operator making changes.
// They are minted out of band (pantryctl token) and presented either as
// "Authorization: Bearer <jwt>" or in a "token" cookie.
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Payload: {"sub":"operator","iss":"pantry","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "pantry"

	// DefaultTTL is the lifetime of tokens minted by Generate.
	DefaultTTL = 12 * time.Hour
)

// TokenService signs and verifies tokens with a shared secret.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService. The secret must be at least
// 16 characters; generate one with `openssl rand -hex 32`.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate mints a token for subject valid for DefaultTTL.
func (s *TokenService) Generate(subject string) (string, error) {
	return s.GenerateWithDuration(subject, DefaultTTL)
}

// GenerateWithDuration mints a token for subject valid for d. A negative d
// yields an already expired token, which tests use.
func (s *TokenService) GenerateWithDuration(subject string, d time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("auth: subject required")
	}
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenStr and returns its subject.
//
// Only HS256 is accepted, which shuts out "alg":"none" tokens.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return c.Subject, nil
}
