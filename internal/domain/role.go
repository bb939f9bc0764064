package domain

// Role is a granted authority carried by a user and checked by the role gate
type Role string

const (
	RoleUser       Role = "ROLE_USER"
	RoleEdit       Role = "ROLE_EDIT"
	RoleGrantEdit  Role = "ROLE_GRANT_EDIT"
	RoleSuperAdmin Role = "ROLE_SUPER_ADMIN"
)

// AssignableRoles are the only values the role-change endpoint accepts.
// ROLE_SUPER_ADMIN is granted out of band (see cmd/admin).
var AssignableRoles = []Role{RoleEdit, RoleGrantEdit}

// KnownRoles lists every role in presentation order.
var KnownRoles = []Role{RoleUser, RoleEdit, RoleGrantEdit, RoleSuperAdmin}

// ParseRole returns the role matching s, if it is one of KnownRoles
func ParseRole(s string) (Role, bool) {
	for _, r := range KnownRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// HasRole reports whether required is present in granted.
// This is an exact membership test; roles do not imply one another.
func HasRole(granted []string, required Role) bool {
	for _, g := range granted {
		if g == string(required) {
			return true
		}
	}
	return false
}

// IsAssignable reports whether r may be set through the role-change endpoint
func IsAssignable(r string) bool {
	for _, a := range AssignableRoles {
		if string(a) == r {
			return true
		}
	}
	return false
}

// ReplaceAssignableRole drops every assignable role from roles and appends next.
// Order of the remaining roles is kept and duplicates are removed.
func ReplaceAssignableRole(roles []string, next Role) []string {
	out := make([]string, 0, len(roles)+1)
	for _, r := range roles {
		if IsAssignable(r) {
			continue
		}
		out = append(out, r)
	}
	return NormalizeRoles(append(out, string(next)))
}

// NormalizeRoles removes duplicates and blanks while keeping first-seen order.
// An empty result falls back to the base role.
func NormalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	if len(out) == 0 {
		out = append(out, string(RoleUser))
	}
	return out
}

// WithoutRole returns roles minus r, keeping the base role as a floor
func WithoutRole(roles []string, r Role) []string {
	out := make([]string, 0, len(roles))
	for _, g := range roles {
		if g != string(r) {
			out = append(out, g)
		}
	}
	return NormalizeRoles(out)
}
