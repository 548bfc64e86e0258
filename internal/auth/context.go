package auth

import "context"

// principalKey is a private type for the security context key.
type principalKey struct{}

// WithPrincipal returns a copy of ctx whose security context holds p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal held by the request's security
// context. ok is false when the context is empty (unauthenticated).
func PrincipalFromContext(ctx context.Context) (p *Principal, ok bool) {
	p, ok = ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
