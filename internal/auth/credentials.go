package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAccountNotFound is returned by an AccountStore that has no record for a username
	ErrAccountNotFound = errors.New("account not found")

	// ErrPrincipalNotFound is returned by Lookup when no principal exists for a username
	ErrPrincipalNotFound = errors.New("principal not found")
)

// Credential is the account store's view of a login identity.
type Credential struct {
	Username     string
	HashedSecret string
	Roles        []Role
}

// AccountStore reads credential records.
type AccountStore interface {
	// FindByUsername returns the credential for username, or ErrAccountNotFound.
	FindByUsername(ctx context.Context, username string) (*Credential, error)
}

// Failure is the typed reason an authentication attempt did not succeed.
type Failure string

const (
	FailureNone             Failure = ""
	FailureBadCredentials   Failure = "bad_credentials"
	FailureStoreUnavailable Failure = "store_unavailable"
)

// AuthOutcome is the result of a username/password authentication attempt.
type AuthOutcome struct {
	Principal *Principal
	Failure   Failure
	Err       error
}

// OK reports whether authentication succeeded.
func (o AuthOutcome) OK() bool {
	return o.Failure == FailureNone && o.Principal != nil
}

// CredentialVerifier hashes and checks secrets and resolves principals
// from the account store.
type CredentialVerifier struct {
	store  AccountStore
	cost   int
	logger *zap.Logger

	// dummyHash is compared against when the account does not exist so that
	// unknown usernames cost the same as wrong passwords.
	dummyHash []byte
}

// NewCredentialVerifier creates a verifier hashing with the given bcrypt cost.
func NewCredentialVerifier(store AccountStore, cost int, logger *zap.Logger) (*CredentialVerifier, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("gradebook-dummy-secret"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &CredentialVerifier{
		store:     store,
		cost:      cost,
		logger:    logger,
		dummyHash: dummy,
	}, nil
}

// Lookup resolves the principal for username.
func (v *CredentialVerifier) Lookup(ctx context.Context, username string) (*Principal, error) {
	cred, err := v.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPrincipalNotFound, username)
		}
		return nil, fmt.Errorf("lookup %q: %w", username, err)
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: %s", ErrPrincipalNotFound, username)
	}
	return NewPrincipal(cred.Username, cred.Roles...), nil
}

// Hash returns a salted bcrypt hash of raw.
func (v *CredentialVerifier) Hash(raw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), v.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether raw matches hashed.
func (v *CredentialVerifier) Verify(raw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(raw)) == nil
}

// Authenticate checks a username/password pair against the account store.
func (v *CredentialVerifier) Authenticate(ctx context.Context, username, password string) AuthOutcome {
	cred, err := v.store.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrAccountNotFound) || (err == nil && cred == nil):
		_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(password))
		v.logger.Debug("authentication failed: unknown account", zap.String("username", username))
		return AuthOutcome{Failure: FailureBadCredentials}
	case err != nil:
		v.logger.Error("account store unavailable", zap.String("username", username), zap.Error(err))
		return AuthOutcome{Failure: FailureStoreUnavailable, Err: err}
	}

	if !v.Verify(password, cred.HashedSecret) {
		v.logger.Debug("authentication failed: bad password", zap.String("username", username))
		return AuthOutcome{Failure: FailureBadCredentials}
	}

	return AuthOutcome{Principal: NewPrincipal(cred.Username, cred.Roles...)}
}
