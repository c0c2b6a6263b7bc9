package authgate

import (
	"fmt"
	"sort"
	"strings"
)

// Requirement is what a protected prefix asks of the caller.
type Requirement string

const (
	// RequireAuthenticated needs any signed in user with a role.
	RequireAuthenticated Requirement = "authenticated"
	// RequireAdmin needs the admin role.
	RequireAdmin Requirement = "admin"
)

// IsValid checks if the requirement is known
func (r Requirement) IsValid() bool {
	switch r {
	case RequireAuthenticated, RequireAdmin:
		return true
	default:
		return false
	}
}

// RouteRule protects every path under Prefix.
type RouteRule struct {
	Prefix   string
	Requires Requirement
}

// RouteTable is the static list of protected prefixes.
type RouteTable struct {
	rules []RouteRule
}

// DefaultRoutes protects /admin for admins, /app and /home for any user.
func DefaultRoutes() map[string]string {
	return map[string]string{
		"/admin": string(RequireAdmin),
		"/app":   string(RequireAuthenticated),
		"/home":  string(RequireAuthenticated),
	}
}

// NewRouteTable builds a table, longest prefix first.
func NewRouteTable(rules ...RouteRule) RouteTable {
	cleaned := make([]RouteRule, 0, len(rules))
	for _, rule := range rules {
		rule.Prefix = normalizePrefix(rule.Prefix)
		if rule.Prefix == "" || !rule.Requires.IsValid() {
			continue
		}
		cleaned = append(cleaned, rule)
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		return len(cleaned[i].Prefix) > len(cleaned[j].Prefix)
	})

	return RouteTable{rules: cleaned}
}

// RouteTableFromMap builds a table from prefix to requirement pairs.
func RouteTableFromMap(m map[string]string) (RouteTable, error) {
	rules := make([]RouteRule, 0, len(m))
	for prefix, raw := range m {
		req := Requirement(strings.TrimSpace(raw))
		if !req.IsValid() {
			return RouteTable{}, fmt.Errorf("authgate: invalid requirement %q for prefix %q", raw, prefix)
		}
		rules = append(rules, RouteRule{Prefix: prefix, Requires: req})
	}
	return NewRouteTable(rules...), nil
}

// Match returns the rule protecting path, if any. Matching respects path
// segments: "/app" covers "/app" and "/app/x" but not "/apple".
func (t RouteTable) Match(path string) (RouteRule, bool) {
	for _, rule := range t.rules {
		if rule.Prefix == "/" {
			return rule, true
		}
		if path == rule.Prefix || strings.HasPrefix(path, rule.Prefix+"/") {
			return rule, true
		}
	}
	return RouteRule{}, false
}

// Rules returns a copy of the rules, longest prefix first.
func (t RouteTable) Rules() []RouteRule {
	out := make([]RouteRule, len(t.rules))
	copy(out, t.rules)
	return out
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if len(prefix) > 1 {
		prefix = strings.TrimRight(prefix, "/")
		if prefix == "" {
			prefix = "/"
		}
	}
	return prefix
}
