// Package token issues and verifies the signed confirmation capability a
// student redeems to accept a priced job. The token is a bearer
// credential with an embedded expiry; the state machine additionally
// checks the per-job stored token and expiry, so neither check alone
// gates the transition.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultValidity is the confirmation window: 7 days.
const DefaultValidity = 168 * time.Hour

// audience scopes tokens to job confirmation so they cannot be replayed
// against any other signed-token surface sharing the secret.
const audience = "job-confirmation"

var errNoSubject = errors.New("token has no job id")

// Service mints and decodes confirmation tokens with an HS256 signature.
type Service struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewService creates a Service. A non-positive validity falls back to
// DefaultValidity.
func NewService(secret []byte, validity time.Duration) *Service {
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &Service{secret: secret, validity: validity, now: time.Now}
}

// Issue returns a URL-safe signed token bound to jobID and the expiry
// instant encoded in it.
func (s *Service) Issue(jobID string) (string, time.Time, error) {
	now := s.now().UTC()
	expires := now.Add(s.validity)

	claims := jwt.RegisteredClaims{
		Subject:   jobID,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Decode verifies signature, audience, and signed expiry, and returns the
// job id the token was minted for.
func (s *Service) Decode(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }),
	)
	claims := &jwt.RegisteredClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errNoSubject
	}
	return claims.Subject, nil
}
