package authgate_test

import (
	"testing"

	"github.com/goliatone/go-authgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTable_Match(t *testing.T) {
	table, err := authgate.RouteTableFromMap(map[string]string{
		"/app":          "authenticated",
		"/app/admin":    "admin",
		"admin/":        "admin",
		"/home":         "authenticated",
		"   /reports  ": "admin",
	})
	require.NoError(t, err)

	tests := []struct {
		path      string
		protected bool
		prefix    string
		requires  authgate.Requirement
	}{
		{"/app", true, "/app", authgate.RequireAuthenticated},
		{"/app/orders/1", true, "/app", authgate.RequireAuthenticated},
		{"/app/admin", true, "/app/admin", authgate.RequireAdmin},
		{"/app/admin/users", true, "/app/admin", authgate.RequireAdmin},
		{"/admin", true, "/admin", authgate.RequireAdmin},
		{"/reports/q1", true, "/reports", authgate.RequireAdmin},
		{"/apple", false, "", ""},
		{"/administrator", false, "", ""},
		{"/", false, "", ""},
		{"", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rule, ok := table.Match(tt.path)
			assert.Equal(t, tt.protected, ok)
			assert.Equal(t, tt.prefix, rule.Prefix)
			assert.Equal(t, tt.requires, rule.Requires)
		})
	}
}

func TestRouteTable_LongestPrefixFirst(t *testing.T) {
	table := authgate.NewRouteTable(
		authgate.RouteRule{Prefix: "/a", Requires: authgate.RequireAuthenticated},
		authgate.RouteRule{Prefix: "/a/b/c", Requires: authgate.RequireAdmin},
		authgate.RouteRule{Prefix: "/a/b", Requires: authgate.RequireAuthenticated},
		authgate.RouteRule{Prefix: "", Requires: authgate.RequireAdmin},
		authgate.RouteRule{Prefix: "/x", Requires: authgate.Requirement("owner")},
	)

	rules := table.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "/a/b/c", rules[0].Prefix)
	assert.Equal(t, "/a/b", rules[1].Prefix)
	assert.Equal(t, "/a", rules[2].Prefix)
}

func TestRouteTable_RootPrefixProtectsEverything(t *testing.T) {
	table := authgate.NewRouteTable(authgate.RouteRule{Prefix: "/", Requires: authgate.RequireAuthenticated})

	_, ok := table.Match("/anything")
	assert.True(t, ok)
}

func TestRouteTableFromMap_InvalidRequirement(t *testing.T) {
	_, err := authgate.RouteTableFromMap(map[string]string{"/app": "owner"})
	assert.Error(t, err)
}

func TestDefaultRoutes(t *testing.T) {
	table, err := authgate.RouteTableFromMap(authgate.DefaultRoutes())
	require.NoError(t, err)

	rule, ok := table.Match("/admin/settings")
	require.True(t, ok)
	assert.Equal(t, authgate.RequireAdmin, rule.Requires)

	for _, path := range []string{"/app", "/home"} {
		rule, ok := table.Match(path)
		require.True(t, ok)
		assert.Equal(t, authgate.RequireAuthenticated, rule.Requires)
	}
}
