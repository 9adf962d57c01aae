package auth

// RoleSet is the set of roles admitted to a protected resource, declared
// per route ahead of time. The empty set means public.
type RoleSet map[Role]struct{}

// Roles builds a RoleSet.
func Roles(rs ...Role) RoleSet {
	set := make(RoleSet, len(rs))
	for _, r := range rs {
		set[r] = struct{}{}
	}
	return set
}

// AnyAuthenticated admits every known role.
func AnyAuthenticated() RoleSet {
	return Roles(RoleStudent, RoleTeacher, RoleAdmin)
}

// Contains reports role membership.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// DenyReason distinguishes a missing credential from an insufficient
// role so callers can answer 401-vs-403 (or redirect a browser).
type DenyReason string

const (
	DenyNoCredential     DenyReason = "no_credential"
	DenyInsufficientRole DenyReason = "insufficient_role"
)

// Decision is the Role Gate outcome.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Authorize admits a request iff an AuthContext exists and its role is a
// member of required. An empty required set is public and always admits.
// Pure function, no I/O.
func Authorize(actx *AuthContext, required RoleSet) Decision {
	if len(required) == 0 {
		return Decision{Allowed: true}
	}
	if actx == nil {
		return Decision{Reason: DenyNoCredential}
	}
	if !required.Contains(actx.Identity.Role) {
		return Decision{Reason: DenyInsufficientRole}
	}
	return Decision{Allowed: true}
}
