package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tlemoine/blog-platform/backend/internal/apperr"
)

// TokenService issues and verifies the signed bearer tokens that carry a
// user's identity. Tokens are HS256 JWTs whose subject is the user id,
// valid for the configured TTL (30 days by default).
//
// There is no server-side revocation: logout is client-side token
// discard, and a token stays valid until it expires.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token asserting userID until now+TTL.
func (s *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "could not sign token")
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the asserted user id.
// Any failure (malformed token, wrong algorithm, bad signature, expired)
// comes back as a single Authentication error.
func (s *TokenService) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return "", apperr.Wrap(apperr.Authentication, err, "Token is not valid")
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", apperr.E(apperr.Authentication, "Token is not valid")
	}
	return claims.Subject, nil
}
