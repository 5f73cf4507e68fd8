package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/oprema/internal/db"
)

func TestTokenRevocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	// Logging out twice revokes once.
	for i := 0; i < 2; i++ {
		if err := RevokeToken(ctx, database, "logout-jti", exp); err != nil {
			t.Fatalf("RevokeToken #%d: %v", i+1, err)
		}
	}

	tests := []struct {
		jti  string
		want bool
	}{
		{"logout-jti", true},
		{"other-jti", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := IsTokenRevoked(ctx, database, tt.jti)
		if err != nil {
			t.Fatalf("IsTokenRevoked(%q): %v", tt.jti, err)
		}
		if got != tt.want {
			t.Errorf("IsTokenRevoked(%q) = %v, want %v", tt.jti, got, tt.want)
		}
	}
}

func TestPurgeExpiredTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, jti := range []string{"expired-1", "expired-2"} {
		if _, err := database.Exec(`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
			jti, time.Now().Add(-time.Hour).UTC()); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
	if _, err := database.Exec(`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		"live", time.Now().Add(time.Hour).UTC()); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	n, err := PurgeExpiredTokens(ctx, database)
	if err != nil {
		t.Fatalf("PurgeExpiredTokens: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 purged, got %d", n)
	}
	if revoked, _ := IsTokenRevoked(ctx, database, "live"); !revoked {
		t.Error("unexpired revocation should stay")
	}

	n, err = PurgeExpiredTokens(ctx, database)
	if err != nil || n != 0 {
		t.Errorf("second purge: n=%d err=%v", n, err)
	}
}
