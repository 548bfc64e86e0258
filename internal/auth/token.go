package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken is returned when the token cannot be split or decoded
	ErrMalformedToken = errors.New("malformed token")

	// ErrSignatureMismatch is returned when the signature was not produced with the server secret
	ErrSignatureMismatch = errors.New("token signature mismatch")

	// ErrExpiredToken is returned when the token's expiry is not after the current time
	ErrExpiredToken = errors.New("token expired")

	// ErrSubjectMismatch is returned when the token was issued to a different principal
	ErrSubjectMismatch = errors.New("token subject mismatch")
)

const (
	tokenDelimiter = "."
	minSecretBytes = 32
	minTTL         = time.Second
)

// segmentEncoding is used for both token segments.
var segmentEncoding = base64.RawURLEncoding

// signingMethod computes and verifies the token signature.
// HMAC verification in jwt compares digests with hmac.Equal.
var signingMethod = jwt.SigningMethodHS256

// TokenService issues and validates bearer tokens of the form
// <base64url(claims)>.<base64url(signature)>.
//
// A TokenService holds only immutable configuration and is safe for
// concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
}

// NewTokenService creates a TokenService signing with secret.
// Tokens expire ttl after issuance.
func NewTokenService(secret []byte, ttl time.Duration, clock Clock) (*TokenService, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", minSecretBytes, len(secret))
	}
	// exp is carried in whole seconds; anything shorter could expire at issuance.
	if ttl < minTTL {
		return nil, fmt.Errorf("token ttl must be at least %s, got %s", minTTL, ttl)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &TokenService{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		clock:  clock,
	}, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue mints a token for the principal.
func (s *TokenService) Issue(p *Principal) (string, error) {
	if p == nil || p.Username() == "" {
		return "", errors.New("cannot issue token without a subject")
	}

	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   p.Username(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode token claims: %w", err)
	}

	encodedClaims := segmentEncoding.EncodeToString(payload)
	sig, err := signingMethod.Sign(encodedClaims, s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return encodedClaims + tokenDelimiter + segmentEncoding.EncodeToString(sig), nil
}

// ExtractUsername returns the token's subject without verifying the signature.
// ok is false for any token that cannot be decoded.
func (s *TokenService) ExtractUsername(token string) (username string, ok bool) {
	_, claims, _, err := parseToken(token)
	if err != nil || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// Validate reports whether token is a genuine, unexpired token issued to p.
func (s *TokenService) Validate(token string, p *Principal) bool {
	return s.Verify(token, p) == nil
}

// Verify checks token against p and returns the reason it is not acceptable,
// or nil when it is.
func (s *TokenService) Verify(token string, p *Principal) error {
	encodedClaims, claims, sig, err := parseToken(token)
	if err != nil {
		return err
	}

	if err := signingMethod.Verify(encodedClaims, sig, s.secret); err != nil {
		return ErrSignatureMismatch
	}

	if claims.ExpiresAt == nil || !s.clock.Now().Before(claims.ExpiresAt.Time) {
		return ErrExpiredToken
	}

	if p == nil || claims.Subject != p.Username() {
		return ErrSubjectMismatch
	}

	return nil
}

// parseToken splits and decodes a token. It never panics.
func parseToken(token string) (encodedClaims string, claims jwt.RegisteredClaims, sig []byte, err error) {
	parts := strings.Split(token, tokenDelimiter)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", claims, nil, ErrMalformedToken
	}

	payload, err := segmentEncoding.DecodeString(parts[0])
	if err != nil {
		return "", claims, nil, ErrMalformedToken
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", claims, nil, ErrMalformedToken
	}

	sig, err = segmentEncoding.DecodeString(parts[1])
	if err != nil {
		return "", claims, nil, ErrMalformedToken
	}

	return parts[0], claims, sig, nil
}
