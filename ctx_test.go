package authgate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityFromContext(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		wantID   string
		wantOK   bool
	}{
		{
			name: "should return identity when present in context",
			setupCtx: func() context.Context {
				return WithIdentity(context.Background(), &Identity{ID: "user123"})
			},
			wantID: "user123",
			wantOK: true,
		},
		{
			name: "should return false when no identity in context",
			setupCtx: func() context.Context {
				return context.Background()
			},
		},
		{
			name: "should return false when identity is nil",
			setupCtx: func() context.Context {
				return WithIdentity(context.Background(), nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, ok := IdentityFromContext(tt.setupCtx())
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, identity.ID)
			}
		})
	}
}

func TestRoleFromContext(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		wantRole  Role
		wantOK    bool
		wantAdmin bool
	}{
		{
			name:      "should return admin role",
			ctx:       WithRole(context.Background(), RoleAdmin),
			wantRole:  RoleAdmin,
			wantOK:    true,
			wantAdmin: true,
		},
		{
			name:     "should return client role",
			ctx:      WithRole(context.Background(), RoleClient),
			wantRole: RoleClient,
			wantOK:   true,
		},
		{
			name: "should reject unknown role",
			ctx:  WithRole(context.Background(), Role("owner")),
		},
		{
			name: "should return false when missing",
			ctx:  context.Background(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, ok := RoleFromContext(tt.ctx)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantRole, role)
			}
			assert.Equal(t, tt.wantAdmin, IsAdmin(tt.ctx))
		})
	}
}
