package auth

import "context"

// IdentityDirectory answers whether a user still exists. The bearer path
// consults it so a token for a deleted user stops working before the
// token expires.
type IdentityDirectory interface {
	Lookup(ctx context.Context, userID string) (Identity, error)
}

// Authenticator resolves a credential of either kind to an AuthContext.
// It never retries; failures surface to the caller unchanged.
type Authenticator struct {
	sessions   SessionStore
	directory  IdentityDirectory
	signingKey string
	issuer     string
}

// NewAuthenticator wires the session store and identity directory.
func NewAuthenticator(sessions SessionStore, directory IdentityDirectory, signingKey, issuer string) *Authenticator {
	return &Authenticator{
		sessions:   sessions,
		directory:  directory,
		signingKey: signingKey,
		issuer:     issuer,
	}
}

// Authenticate resolves cred to a validated AuthContext.
//
// Session tokens fail with ErrUnauthenticated when absent. Bearer tokens
// fail with ErrInvalidCredential when malformed, ErrExpired when past
// their window, and ErrNotFound when the referenced identity is gone.
func (a *Authenticator) Authenticate(ctx context.Context, cred Credential) (AuthContext, error) {
	switch cred.Kind {
	case KindSession:
		id, err := a.sessions.Get(ctx, cred.Token)
		if err != nil {
			return AuthContext{}, err
		}
		return AuthContext{Identity: id, CredentialKind: KindSession}, nil

	case KindBearer:
		claims, err := ParseToken(cred.Token, a.signingKey, a.issuer)
		if err != nil {
			return AuthContext{}, err
		}
		id, err := a.directory.Lookup(ctx, claims.Subject)
		if err != nil {
			return AuthContext{}, err
		}
		// The directory's role is authoritative over the token copy.
		return AuthContext{Identity: id, CredentialKind: KindBearer}, nil
	}
	return AuthContext{}, ErrUnauthenticated
}
