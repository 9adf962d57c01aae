package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeDirectory struct {
	users map[string]Identity
}

func (d *fakeDirectory) Lookup(ctx context.Context, userID string) (Identity, error) {
	id, ok := d.users[userID]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return id, nil
}

func newTestAuthenticator(sessions SessionStore, users ...Identity) *Authenticator {
	dir := &fakeDirectory{users: make(map[string]Identity)}
	for _, id := range users {
		dir.users[id.UserID] = id
	}
	return NewAuthenticator(sessions, dir, testKey, "rollcall")
}

func TestAuthenticateSessionCredential(t *testing.T) {
	sessions := NewMemorySessions(time.Hour)
	id := Identity{UserID: "u-1", Role: RoleStudent}
	token, err := sessions.Create(context.Background(), id)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	a := newTestAuthenticator(sessions, id)
	actx, err := a.Authenticate(context.Background(), Credential{Kind: KindSession, Token: token})
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if actx.Identity != id || actx.CredentialKind != KindSession {
		t.Fatalf("unexpected auth context: %+v", actx)
	}

	if _, err := a.Authenticate(context.Background(), Credential{Kind: KindSession, Token: "absent"}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("absent session error = %v, want ErrUnauthenticated", err)
	}
}

func TestAuthenticateSessionInvalidatedAtLogout(t *testing.T) {
	sessions := NewMemorySessions(time.Hour)
	id := Identity{UserID: "u-1", Role: RoleStudent}
	token, _ := sessions.Create(context.Background(), id)

	a := newTestAuthenticator(sessions, id)
	if err := sessions.Delete(context.Background(), token); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := a.Authenticate(context.Background(), Credential{Kind: KindSession, Token: token}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("deleted session error = %v, want ErrUnauthenticated", err)
	}
}

func TestAuthenticateBearerCredential(t *testing.T) {
	id := Identity{UserID: "u-1", Role: RoleTeacher}
	a := newTestAuthenticator(NewMemorySessions(time.Hour), id)

	tokens, err := Issue(id, "rollcall", testKey, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	actx, err := a.Authenticate(context.Background(), Credential{Kind: KindBearer, Token: tokens.AccessToken})
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if actx.Identity != id || actx.CredentialKind != KindBearer {
		t.Fatalf("unexpected auth context: %+v", actx)
	}

	if _, err := a.Authenticate(context.Background(), Credential{Kind: KindBearer, Token: "garbage"}); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("malformed bearer error = %v, want ErrInvalidCredential", err)
	}
}

func TestAuthenticateBearerForDeletedUser(t *testing.T) {
	id := Identity{UserID: "u-gone", Role: RoleStudent}
	tokens, err := Issue(id, "rollcall", testKey, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// Directory no longer knows the user the token references.
	a := newTestAuthenticator(NewMemorySessions(time.Hour))
	if _, err := a.Authenticate(context.Background(), Credential{Kind: KindBearer, Token: tokens.AccessToken}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestMemorySessionsExpire(t *testing.T) {
	sessions := NewMemorySessions(time.Nanosecond)
	token, _ := sessions.Create(context.Background(), Identity{UserID: "u-1", Role: RoleStudent})
	time.Sleep(time.Millisecond)
	if _, err := sessions.Get(context.Background(), token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expired session error = %v, want ErrUnauthenticated", err)
	}
}
