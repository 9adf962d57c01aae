package store

import "testing"

func TestNewDBRejectsBadConnString(t *testing.T) {
	db, err := NewDB("://not-a-dsn")
	if err == nil {
		t.Fatalf("NewDB accepted an unparsable connection string")
	}
	if db != nil {
		t.Fatalf("NewDB returned a handle alongside a parse error")
	}
}
