package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "ADMIN", want: RoleAdmin},
		{in: "ROLE_ADMIN", want: RoleAdmin},
		{in: "role_user", want: RoleUser},
		{in: " USER ", want: RoleUser},
		{in: "TEACHER", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "ROLE_ADMIN", RoleAdmin.Authority())
}

func TestPrincipal(t *testing.T) {
	p := NewPrincipal("alice", RoleUser, RoleUser, RoleAdmin)

	assert.Equal(t, "alice", p.Username())
	assert.Equal(t, []Role{RoleUser, RoleAdmin}, p.Roles())
	assert.Equal(t, []string{"USER", "ADMIN"}, p.RoleNames())

	roles := p.Roles()
	roles[0] = "MUTATED"
	assert.True(t, p.HasRole(RoleUser), "Roles must return a copy")
}

func TestSecurityContext(t *testing.T) {
	ctx := context.Background()

	_, ok := PrincipalFromContext(ctx)
	assert.False(t, ok)

	ctx = WithPrincipal(ctx, NewPrincipal("alice", RoleUser))
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "alice", p.Username())

	_, ok = PrincipalFromContext(WithPrincipal(context.Background(), nil))
	assert.False(t, ok)
}
