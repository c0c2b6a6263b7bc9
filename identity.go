package authgate

import "strings"

// Identity is the authenticated user as reported by the identity provider.
// Treat it as immutable.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// NormalizedEmail returns the email trimmed and lower cased.
func (i *Identity) NormalizedEmail() string {
	if i == nil {
		return ""
	}
	return normalizeEmail(i.Email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneIdentity(i *Identity) *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
