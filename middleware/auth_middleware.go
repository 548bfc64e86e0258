package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/upb/gradebook/internal/auth"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// TokenValidator is the part of auth.TokenService the gate depends on.
type TokenValidator interface {
	ExtractUsername(token string) (string, bool)
	Validate(token string, principal *auth.Principal) bool
}

// PrincipalLookup resolves the principal a token claims to belong to.
type PrincipalLookup interface {
	Lookup(ctx context.Context, username string) (*auth.Principal, error)
}

// AuthenticationGate populates the security context from a bearer token.
//
// The gate never rejects a request: whatever happens while resolving the
// token, the next handler is called exactly once. Denial is the job of the
// chain rules evaluated after it.
type AuthenticationGate struct {
	tokens     TokenValidator
	principals PrincipalLookup
	logger     *zap.Logger
}

// NewAuthenticationGate creates a new AuthenticationGate
func NewAuthenticationGate(tokens TokenValidator, principals PrincipalLookup, logger *zap.Logger) *AuthenticationGate {
	return &AuthenticationGate{
		tokens:     tokens,
		principals: principals,
		logger:     logger,
	}
}

// Authenticate is the gate's middleware form.
func (g *AuthenticationGate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(g.resolve(r)))
	})
}

// resolve returns the context the next stage should see. Any failure leaves
// the incoming context untouched.
func (g *AuthenticationGate) resolve(r *http.Request) (ctx context.Context) {
	ctx = r.Context()
	requestID := GetRequestIDFromContext(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("authentication gate recovered from panic",
				zap.String("request_id", requestID),
				zap.Any("panic", rec))
			ctx = r.Context()
		}
	}()

	header := r.Header.Get("Authorization")
	if header == "" {
		return ctx
	}

	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		g.logger.Debug("authorization header is not a bearer credential",
			zap.String("request_id", requestID))
		return ctx
	}

	username, ok := g.tokens.ExtractUsername(token)
	if !ok {
		g.logger.Debug("bearer token is not decodable",
			zap.String("request_id", requestID))
		return ctx
	}

	if existing, ok := auth.PrincipalFromContext(ctx); ok {
		g.logger.Debug("security context already populated",
			zap.String("request_id", requestID),
			zap.String("username", existing.Username()))
		return ctx
	}

	principal, err := g.principals.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, auth.ErrPrincipalNotFound) {
			// Proceeds unauthenticated; protected paths still deny at the chain boundary.
			g.logger.Warn("token subject has no account",
				zap.String("request_id", requestID),
				zap.String("username", username))
		} else {
			g.logger.Error("principal lookup failed",
				zap.String("request_id", requestID),
				zap.String("username", username),
				zap.Error(err))
		}
		return ctx
	}

	if !g.tokens.Validate(token, principal) {
		g.logger.Debug("bearer token rejected",
			zap.String("request_id", requestID),
			zap.String("username", username))
		return ctx
	}

	g.logger.Debug("authentication successful",
		zap.String("request_id", requestID),
		zap.String("username", username),
		zap.Strings("roles", principal.RoleNames()))

	return auth.WithPrincipal(ctx, principal)
}
