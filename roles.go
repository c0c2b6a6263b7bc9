package authgate

// Role is the authorization level derived for a profile.
type Role string

const (
	// RoleAdmin can reach every protected section.
	RoleAdmin Role = "admin"
	// RoleClient can reach sections that only require authentication.
	RoleClient Role = "client"
)

// IsValid checks if the role is one of the predefined roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleClient:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether r is RoleAdmin
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// ParseRole safely parses a string into a Role
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	return role, role.IsValid()
}

// RoleFromAdmin maps an admin flag to its role.
func RoleFromAdmin(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleClient
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{RoleClient, RoleAdmin}
}
