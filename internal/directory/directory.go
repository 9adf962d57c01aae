// Package directory is the user directory backing login and the bearer
// path's identity lookup.
package directory

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"rollcall/internal/auth"
)

// Repository reads users from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Login verifies a username/password pair against the stored bcrypt hash
// and returns the identity. Unknown user and wrong password fail
// identically with ErrUnauthenticated.
func (r *Repository) Login(ctx context.Context, username, password string) (auth.Identity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, password_hash, role
		FROM users WHERE username = $1
	`, username)
	var userID, hash, role string
	if err := row.Scan(&userID, &hash, &role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Identity{}, auth.ErrUnauthenticated
		}
		return auth.Identity{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	parsed, ok := auth.ParseRole(role)
	if !ok {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	return auth.Identity{UserID: userID, Role: parsed}, nil
}

// Lookup resolves a user id to its current identity. Fails with
// auth.ErrNotFound when the user no longer exists.
func (r *Repository) Lookup(ctx context.Context, userID string) (auth.Identity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, role FROM users WHERE user_id = $1
	`, userID)
	var id, role string
	if err := row.Scan(&id, &role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Identity{}, auth.ErrNotFound
		}
		return auth.Identity{}, err
	}
	parsed, ok := auth.ParseRole(role)
	if !ok {
		return auth.Identity{}, auth.ErrNotFound
	}
	return auth.Identity{UserID: id, Role: parsed}, nil
}

// UpsertUser creates or updates a user with an already-hashed password.
// Seeding and provisioning tooling goes through here.
func (r *Repository) UpsertUser(ctx context.Context, id auth.Identity, username, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role
	`, id.UserID, username, passwordHash, string(id.Role))
	return err
}

// HashPassword produces the stored form for seeding and registration.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
