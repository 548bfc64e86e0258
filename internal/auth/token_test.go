package auth

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// fakeClock is a settable clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTokenService(t *testing.T, clock Clock) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testSecret, time.Hour, clock)
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name    string
		secret  []byte
		ttl     time.Duration
		wantErr string
	}{
		{name: "valid", secret: testSecret, ttl: time.Hour},
		{name: "short secret", secret: []byte("short"), ttl: time.Hour, wantErr: "at least 32 bytes"},
		{name: "one second ttl", secret: testSecret, ttl: time.Second},
		{name: "zero ttl", secret: testSecret, ttl: 0, wantErr: "ttl must be at least 1s"},
		{name: "negative ttl", secret: testSecret, ttl: -time.Minute, wantErr: "ttl must be at least 1s"},
		{name: "sub-second ttl", secret: testSecret, ttl: 500 * time.Millisecond, wantErr: "ttl must be at least 1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewTokenService(tt.secret, tt.ttl, nil)
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ttl, svc.TTL())
		})
	}
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("token is valid immediately and until expiry", func(t *testing.T) {
		clock := newFakeClock(start)
		svc := newTestTokenService(t, clock)
		alice := NewPrincipal("alice", RoleUser)

		token, err := svc.Issue(alice)
		require.NoError(t, err)
		assert.True(t, svc.Validate(token, alice))

		clock.Advance(time.Hour - time.Second)
		assert.True(t, svc.Validate(token, alice))

		clock.Advance(time.Second)
		assert.False(t, svc.Validate(token, alice), "token must be invalid at exp")
		assert.ErrorIs(t, svc.Verify(token, alice), ErrExpiredToken)
	})

	t.Run("minimum ttl issued late in a second is valid immediately", func(t *testing.T) {
		clock := newFakeClock(start.Add(999 * time.Millisecond))
		svc, err := NewTokenService(testSecret, time.Second, clock)
		require.NoError(t, err)
		alice := NewPrincipal("alice", RoleUser)

		token, err := svc.Issue(alice)
		require.NoError(t, err)
		assert.NoError(t, svc.Verify(token, alice))
	})

	t.Run("wire format has two base64url segments", func(t *testing.T) {
		svc := newTestTokenService(t, newFakeClock(start))

		token, err := svc.Issue(NewPrincipal("alice"))
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 2)

		payload, err := segmentEncoding.DecodeString(parts[0])
		require.NoError(t, err)

		var claims map[string]interface{}
		require.NoError(t, json.Unmarshal(payload, &claims))
		assert.Equal(t, "alice", claims["sub"])
		assert.Equal(t, float64(start.Unix()), claims["iat"])
		assert.Equal(t, float64(start.Add(time.Hour).Unix()), claims["exp"])
	})

	t.Run("subject mismatch is invalid", func(t *testing.T) {
		svc := newTestTokenService(t, newFakeClock(start))

		token, err := svc.Issue(NewPrincipal("alice"))
		require.NoError(t, err)

		bob := NewPrincipal("bob")
		assert.False(t, svc.Validate(token, bob))
		assert.ErrorIs(t, svc.Verify(token, bob), ErrSubjectMismatch)
		assert.False(t, svc.Validate(token, nil))
	})

	t.Run("token signed with another secret is invalid", func(t *testing.T) {
		clock := newFakeClock(start)
		svc := newTestTokenService(t, clock)
		other, err := NewTokenService([]byte("ffffffffffffffffffffffffffffffff"), time.Hour, clock)
		require.NoError(t, err)

		alice := NewPrincipal("alice")
		token, err := other.Issue(alice)
		require.NoError(t, err)

		assert.False(t, svc.Validate(token, alice))
		assert.ErrorIs(t, svc.Verify(token, alice), ErrSignatureMismatch)
	})

	t.Run("issue requires a subject", func(t *testing.T) {
		svc := newTestTokenService(t, newFakeClock(start))

		_, err := svc.Issue(nil)
		assert.Error(t, err)

		_, err = svc.Issue(NewPrincipal(""))
		assert.Error(t, err)
	})
}

func TestTokenService_SignatureBitFlip(t *testing.T) {
	svc := newTestTokenService(t, newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	alice := NewPrincipal("alice")

	token, err := svc.Issue(alice)
	require.NoError(t, err)
	require.True(t, svc.Validate(token, alice))

	parts := strings.Split(token, ".")
	sig, err := segmentEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	for i := 0; i < len(sig)*8; i++ {
		flipped := append([]byte(nil), sig...)
		flipped[i/8] ^= 1 << (i % 8)
		tampered := parts[0] + "." + segmentEncoding.EncodeToString(flipped)

		assert.False(t, svc.Validate(tampered, alice), "bit %d flipped", i)
	}
}

func TestTokenService_TamperedClaims(t *testing.T) {
	svc := newTestTokenService(t, newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	token, err := svc.Issue(NewPrincipal("alice"))
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	forged := segmentEncoding.EncodeToString([]byte(`{"sub":"mallory","iat":1,"exp":99999999999}`))
	mallory := NewPrincipal("mallory")

	assert.False(t, svc.Validate(forged+"."+parts[1], mallory))
}

func TestTokenService_ExpiredRegardlessOfSignature(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestTokenService(t, newFakeClock(start.Add(-2*time.Hour)))
	validator := newTestTokenService(t, newFakeClock(start))
	alice := NewPrincipal("alice")

	token, err := issuer.Issue(alice)
	require.NoError(t, err)

	assert.ErrorIs(t, validator.Verify(token, alice), ErrExpiredToken)
	assert.False(t, validator.Validate(token, alice))
}

func TestTokenService_ExtractUsername(t *testing.T) {
	svc := newTestTokenService(t, newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	token, err := svc.Issue(NewPrincipal("alice"))
	require.NoError(t, err)

	username, ok := svc.ExtractUsername(token)
	assert.True(t, ok)
	assert.Equal(t, "alice", username)

	noSubject := segmentEncoding.EncodeToString([]byte(`{"iat":1}`)) + ".c2ln"

	invalid := map[string]string{
		"empty":              "",
		"one segment":        "abc",
		"three segments":     "a.b.c",
		"empty claims":       ".c2ln",
		"empty signature":    strings.Split(token, ".")[0] + ".",
		"non base64 claims":  "!!!.c2ln",
		"non json claims":    segmentEncoding.EncodeToString([]byte("not json")) + ".c2ln",
		"non base64 sig":     strings.Split(token, ".")[0] + ".***",
		"missing subject":    noSubject,
		"only delimiter":     ".",
		"whitespace":         "   ",
		"wrong claim types":  segmentEncoding.EncodeToString([]byte(`{"sub":42}`)) + ".c2ln",
	}

	for name, input := range invalid {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				username, ok := svc.ExtractUsername(input)
				assert.False(t, ok)
				assert.Empty(t, username)
			})
			assert.False(t, svc.Validate(input, NewPrincipal("alice")))
		})
	}
}

func TestTokenService_ConcurrentUse(t *testing.T) {
	svc := newTestTokenService(t, SystemClock{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := NewPrincipal("alice", RoleUser)
			token, err := svc.Issue(p)
			assert.NoError(t, err)
			assert.True(t, svc.Validate(token, p))
		}()
	}
	wg.Wait()
}
