package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/oprema/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"
	p := &model.Principal{ID: "u-1", Name: "Ana", Role: model.RoleAdmin}

	token, err := GenerateToken(secret, p, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != "u-1" {
		t.Errorf("expected user_id 'u-1', got %q", claims.UserID)
	}
	if claims.Name != "Ana" {
		t.Errorf("expected name 'Ana', got %q", claims.Name)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("expected role 'admin', got %q", claims.Role)
	}
	if claims.ID == "" {
		t.Error("expected a jti")
	}
	if claims.IsSuperAdmin() {
		t.Error("regular user must not be reported as super-admin")
	}
}

func TestSuperAdminToken(t *testing.T) {
	token, _ := GenerateToken("s", model.SuperAdmin(), time.Hour)
	claims, err := ValidateToken("s", token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if !claims.IsSuperAdmin() {
		t.Error("expected super-admin claims")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", &model.Principal{ID: "u", Role: model.RoleUser}, time.Hour)

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	claims := Claims{
		UserID: "u",
		Role:   model.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := ValidateToken("s", token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	ttl := 48 * time.Hour
	token, _ := GenerateToken(secret, &model.Principal{ID: "u", Role: model.RoleUser}, ttl)
	claims, _ := ValidateToken(secret, token)

	expiresAt := claims.ExpiresAt.Time
	expectedExpiry := time.Now().Add(ttl)

	// Should be within a few seconds.
	diff := expectedExpiry.Sub(expiresAt)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
