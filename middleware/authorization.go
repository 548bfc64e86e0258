package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/upb/gradebook/internal/auth"
	"go.uber.org/zap"
)

// Access is what a rule demands of the caller.
type Access int

const (
	AccessPermitAll Access = iota
	AccessAuthenticated
	AccessRole
)

func (a Access) String() string {
	switch a {
	case AccessPermitAll:
		return "permit_all"
	case AccessAuthenticated:
		return "authenticated"
	case AccessRole:
		return "role"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// Rule maps a set of Ant-style path patterns to an access requirement.
type Rule struct {
	Patterns []string
	Access   Access
	Role     auth.Role
}

// Permit lets anyone through on the given patterns.
func Permit(patterns ...string) Rule {
	return Rule{Patterns: patterns, Access: AccessPermitAll}
}

// RequireAuthenticated demands any principal on the given patterns.
func RequireAuthenticated(patterns ...string) Rule {
	return Rule{Patterns: patterns, Access: AccessAuthenticated}
}

// RequireRole demands a principal holding role on the given patterns.
func RequireRole(role auth.Role, patterns ...string) Rule {
	return Rule{Patterns: patterns, Access: AccessRole, Role: role}
}

// Chain is one ordered security chain: the paths it claims, the identity
// stage that runs before its rules, and how it denies.
type Chain struct {
	Name        string
	Patterns    []string
	Middlewares []func(http.Handler) http.Handler
	// Rules are evaluated top-down; a path no rule matches requires authentication.
	Rules []Rule

	OnUnauthenticated func(w http.ResponseWriter, r *http.Request)
	OnForbidden       func(w http.ResponseWriter, r *http.Request)

	Handler http.Handler
}

// RouteAuthorizationPolicy dispatches each request to the first chain whose
// patterns match its path. Only that chain's identity stage and rules apply.
type RouteAuthorizationPolicy struct {
	chains   []Chain
	handlers []http.Handler
	logger   *zap.Logger
}

// NewRouteAuthorizationPolicy validates every pattern and assembles the chains
// in the order given.
func NewRouteAuthorizationPolicy(logger *zap.Logger, chains ...Chain) (*RouteAuthorizationPolicy, error) {
	if len(chains) == 0 {
		return nil, fmt.Errorf("at least one security chain is required")
	}

	p := &RouteAuthorizationPolicy{logger: logger}
	for i, c := range chains {
		if c.Handler == nil {
			return nil, fmt.Errorf("chain %q: handler is required", c.Name)
		}
		if len(c.Patterns) == 0 {
			return nil, fmt.Errorf("chain %q: at least one path pattern is required", c.Name)
		}
		if err := validatePatterns(c.Patterns); err != nil {
			return nil, fmt.Errorf("chain %q: %w", c.Name, err)
		}
		for j, rule := range c.Rules {
			if err := validatePatterns(rule.Patterns); err != nil {
				return nil, fmt.Errorf("chain %q rule %d: %w", c.Name, j, err)
			}
			if rule.Access == AccessRole && rule.Role == "" {
				return nil, fmt.Errorf("chain %q rule %d: role rule without a role", c.Name, j)
			}
		}
		if c.OnUnauthenticated == nil {
			c.OnUnauthenticated = func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			}
		}
		if c.OnForbidden == nil {
			c.OnForbidden = func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			}
		}
		chains[i] = c

		var h http.Handler = p.authorize(chains[i])
		for k := len(c.Middlewares) - 1; k >= 0; k-- {
			h = c.Middlewares[k](h)
		}
		p.chains = append(p.chains, c)
		p.handlers = append(p.handlers, h)
	}
	return p, nil
}

// ServeHTTP implements http.Handler.
func (p *RouteAuthorizationPolicy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestPath, ok := routingPath(r)
	if !ok {
		p.logger.Warn("rejected ambiguous request path",
			zap.String("request_id", GetRequestIDFromContext(r.Context())),
			zap.String("path", requestPath))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	i := p.chainIndex(requestPath)
	if i < 0 {
		p.logger.Warn("no security chain matches path",
			zap.String("request_id", GetRequestIDFromContext(r.Context())),
			zap.String("path", requestPath))
		http.NotFound(w, r)
		return
	}
	p.handlers[i].ServeHTTP(w, r)
}

// chainIndex returns the position of the chain that governs requestPath, or -1.
func (p *RouteAuthorizationPolicy) chainIndex(requestPath string) int {
	for i, c := range p.chains {
		if matchAny(c.Patterns, requestPath) {
			return i
		}
	}
	return -1
}

func (p *RouteAuthorizationPolicy) authorize(c Chain) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestPath, _ := routingPath(r)
		rule := ruleFor(c.Rules, requestPath)

		if rule.Access == AccessPermitAll {
			c.Handler.ServeHTTP(w, r)
			return
		}

		principal, ok := auth.PrincipalFromContext(ctx)
		if !ok {
			p.logger.Debug("authentication required",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("chain", c.Name),
				zap.String("path", requestPath))
			c.OnUnauthenticated(w, r)
			return
		}

		if rule.Access == AccessRole && !principal.HasRole(rule.Role) {
			p.logger.Warn("insufficient permissions",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("chain", c.Name),
				zap.String("path", requestPath),
				zap.String("username", principal.Username()),
				zap.String("required_authority", rule.Role.Authority()),
				zap.Strings("roles", principal.RoleNames()))
			c.OnForbidden(w, r)
			return
		}

		c.Handler.ServeHTTP(w, r)
	})
}

func ruleFor(rules []Rule, requestPath string) Rule {
	for _, rule := range rules {
		if matchAny(rule.Patterns, requestPath) {
			return rule
		}
	}
	return Rule{Access: AccessAuthenticated}
}

func validatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if !strings.HasPrefix(pattern, "/") {
			return fmt.Errorf("pattern %q must be absolute", pattern)
		}
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid path pattern %q", pattern)
		}
	}
	return nil
}

func matchAny(patterns []string, requestPath string) bool {
	for _, pattern := range patterns {
		if matchPattern(pattern, requestPath) {
			return true
		}
	}
	return false
}

// matchPattern applies Ant semantics: a trailing "/**" also matches the
// directory itself.
func matchPattern(pattern, requestPath string) bool {
	if ok, _ := doublestar.Match(pattern, requestPath); ok {
		return true
	}
	base, found := strings.CutSuffix(pattern, "/**")
	if !found {
		return false
	}
	if base == "" {
		return strings.HasPrefix(requestPath, "/")
	}
	ok, _ := doublestar.Match(base, requestPath)
	return ok
}

// routingPath returns the path the routers behind the policy dispatch on:
// the escaped form when the request carried one, as chi does. ok is false
// when the decoded and dispatched forms could disagree, i.e. the path holds
// dot segments or an encoded separator.
func routingPath(r *http.Request) (string, bool) {
	routed := r.URL.RawPath
	if routed == "" {
		routed = r.URL.Path
	}
	if routed == "" {
		return "/", true
	}

	lower := strings.ToLower(routed)
	if strings.Contains(lower, "%2f") || strings.Contains(lower, "%5c") {
		return routed, false
	}
	for _, segment := range strings.Split(r.URL.Path, "/") {
		if segment == "." || segment == ".." {
			return routed, false
		}
	}
	return routed, true
}
