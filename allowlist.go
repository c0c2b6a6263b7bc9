package authgate

import "strings"

// AllowList is the set of emails that are seeded as admins.
type AllowList struct {
	emails map[string]struct{}
}

// ParseAdminEmails splits a comma separated list, trimming, lower casing
// and dropping empty entries.
func ParseAdminEmails(raw string) []string {
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		if email := normalizeEmail(item); email != "" {
			out = append(out, email)
		}
	}
	return out
}

// NewAllowList builds an AllowList from already split emails.
func NewAllowList(emails ...string) AllowList {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		if email = normalizeEmail(email); email != "" {
			set[email] = struct{}{}
		}
	}
	return AllowList{emails: set}
}

// NewAllowListFromString parses a comma separated list.
func NewAllowListFromString(raw string) AllowList {
	return NewAllowList(ParseAdminEmails(raw)...)
}

// Contains reports whether email is allow listed. Empty emails never match.
func (a AllowList) Contains(email string) bool {
	email = normalizeEmail(email)
	if email == "" || a.emails == nil {
		return false
	}
	_, ok := a.emails[email]
	return ok
}

// Len returns the number of entries.
func (a AllowList) Len() int {
	return len(a.emails)
}
