// Package auth resolves inbound credentials to identities and decides
// route admission by role.
package auth

import "errors"

// Credential resolution failures. Handlers map these to HTTP statuses;
// none of them implies anything about downstream state.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrExpired           = errors.New("credential expired")
	ErrNotFound          = errors.New("identity not found")
	ErrForbidden         = errors.New("forbidden")
)

// Role is the enumerated access level carried by every identity.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a stored role string to a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Elevated reports whether the role may act on behalf of other users.
func (r Role) Elevated() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// Identity is who a credential resolved to. Immutable once attached to a
// request.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// CredentialKind distinguishes how an identity was proven.
type CredentialKind string

const (
	KindSession CredentialKind = "session"
	KindBearer  CredentialKind = "bearer"
)

// Credential is an opaque inbound token plus its kind. It resolves to
// exactly one Identity or fails.
type Credential struct {
	Kind  CredentialKind
	Token string
}

// AuthContext is the validated result attached to a request. Never
// persisted.
type AuthContext struct {
	Identity       Identity
	CredentialKind CredentialKind
}
