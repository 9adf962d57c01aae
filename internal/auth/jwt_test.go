package auth

import (
	"errors"
	"testing"
	"time"
)

const testKey = "test-signing-key"

func TestIssueAndParseRoundTrip(t *testing.T) {
	id := Identity{UserID: "u-1", Role: RoleStudent}
	tokens, err := Issue(id, "rollcall", testKey, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := ParseToken(tokens.AccessToken, testKey, "rollcall")
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if claims.Subject != "u-1" || claims.Role != RoleStudent {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenExpired(t *testing.T) {
	id := Identity{UserID: "u-1", Role: RoleStudent}
	tokens, err := Issue(id, "rollcall", testKey, -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := ParseToken(tokens.AccessToken, testKey, "rollcall"); !errors.Is(err, ErrExpired) {
		t.Fatalf("error = %v, want ErrExpired", err)
	}
}

func TestParseTokenRejectsDefects(t *testing.T) {
	id := Identity{UserID: "u-1", Role: RoleTeacher}
	tokens, err := Issue(id, "rollcall", testKey, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := ParseToken("not-a-token", testKey, "rollcall"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("malformed token error = %v, want ErrInvalidCredential", err)
	}
	if _, err := ParseToken(tokens.AccessToken, "other-key", "rollcall"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("wrong key error = %v, want ErrInvalidCredential", err)
	}
	if _, err := ParseToken(tokens.AccessToken, testKey, "someone-else"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("issuer mismatch error = %v, want ErrInvalidCredential", err)
	}
}
