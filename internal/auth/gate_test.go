package auth

import "testing"

func ctxWith(role Role) *AuthContext {
	return &AuthContext{
		Identity:       Identity{UserID: "u-1", Role: role},
		CredentialKind: KindSession,
	}
}

func TestAuthorizeMembership(t *testing.T) {
	roles := []Role{RoleStudent, RoleTeacher, RoleAdmin}
	sets := []RoleSet{
		Roles(),
		Roles(RoleAdmin),
		Roles(RoleTeacher, RoleAdmin),
		AnyAuthenticated(),
	}

	for _, required := range sets {
		for _, role := range roles {
			decision := Authorize(ctxWith(role), required)
			want := len(required) == 0 || required.Contains(role)
			if decision.Allowed != want {
				t.Fatalf("Authorize(%s, %v) allowed = %v, want %v", role, required, decision.Allowed, want)
			}
			if !decision.Allowed && decision.Reason != DenyInsufficientRole {
				t.Fatalf("Authorize(%s, %v) reason = %q, want insufficient role", role, required, decision.Reason)
			}
		}
	}
}

func TestAuthorizeNoCredential(t *testing.T) {
	decision := Authorize(nil, Roles(RoleAdmin))
	if decision.Allowed {
		t.Fatalf("missing credential admitted to admin-only resource")
	}
	if decision.Reason != DenyNoCredential {
		t.Fatalf("reason = %q, want no credential", decision.Reason)
	}

	// An empty required set is public even without a credential.
	if decision := Authorize(nil, Roles()); !decision.Allowed {
		t.Fatalf("public resource denied without credential")
	}
}

func TestAuthorizeDeterministic(t *testing.T) {
	required := Roles(RoleTeacher, RoleAdmin)
	first := Authorize(ctxWith(RoleStudent), required)
	for i := 0; i < 10; i++ {
		if got := Authorize(ctxWith(RoleStudent), required); got != first {
			t.Fatalf("decision changed between identical calls: %+v vs %+v", got, first)
		}
	}
}
