package auth

import (
	"fmt"
	"slices"
	"strings"
)

// Role is a coarse-grained permission attached to a principal.
// Roles have no hierarchy: ADMIN does not imply USER.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// rolePrefix is how roles are persisted by the account store ("ROLE_ADMIN").
const rolePrefix = "ROLE_"

// ParseRole converts a stored role name into a Role.
// Both "ADMIN" and the persisted "ROLE_ADMIN" forms are accepted, case-insensitively.
func ParseRole(s string) (Role, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, rolePrefix)
	switch Role(name) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Authority returns the persisted form of the role.
func (r Role) Authority() string {
	return rolePrefix + string(r)
}

// Principal identifies an authenticated actor for the lifetime of one request.
type Principal struct {
	username string
	roles    []Role
}

// NewPrincipal creates a principal. Duplicate roles are collapsed.
func NewPrincipal(username string, roles ...Role) *Principal {
	set := make([]Role, 0, len(roles))
	for _, r := range roles {
		if !slices.Contains(set, r) {
			set = append(set, r)
		}
	}
	return &Principal{username: username, roles: set}
}

// Username returns the principal's username.
func (p *Principal) Username() string {
	return p.username
}

// Roles returns a copy of the principal's roles.
func (p *Principal) Roles() []Role {
	return slices.Clone(p.roles)
}

// HasRole reports whether the principal holds exactly the given role.
func (p *Principal) HasRole(role Role) bool {
	return slices.Contains(p.roles, role)
}

// RoleNames returns the roles as plain strings, in declaration order.
func (p *Principal) RoleNames() []string {
	names := make([]string, len(p.roles))
	for i, r := range p.roles {
		names[i] = string(r)
	}
	return names
}

func (p *Principal) String() string {
	return fmt.Sprintf("%s%v", p.username, p.roles)
}
