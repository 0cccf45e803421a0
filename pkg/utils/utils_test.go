package utils

import (
	"strings"
	"testing"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("gopher-hour-2026")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "gopher-hour-2026" {
		t.Fatal("hash must not equal the plain password")
	}

	if !CheckPassword("gopher-hour-2026", hash) {
		t.Fatal("expected the original password to verify")
	}
	if CheckPassword("gopher-hour-2027", hash) {
		t.Fatal("expected a different password to fail verification")
	}
}

func TestTokenCarriesDeveloperClaims(t *testing.T) {
	token, err := GenerateToken("42", "developer", "unit-test-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token, "unit-test-secret")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "42" {
		t.Fatalf("expected user id 42, got %q", claims.UserID)
	}
	if claims.Role != "developer" {
		t.Fatalf("expected developer role, got %q", claims.Role)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected issued-at and expiry claims to be set")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("42", "user", "unit-test-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken(token, "another-secret"); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestValidateTokenRejectsTamperedPayload(t *testing.T) {
	token, err := GenerateToken("42", "user", "unit-test-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	// Swap the payload segment for one from a token claiming another role;
	// the signature no longer matches.
	other, err := GenerateToken("42", "developer", "unit-test-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	if len(parts) != 3 || len(otherParts) != 3 {
		t.Fatalf("expected three token segments, got %d and %d", len(parts), len(otherParts))
	}
	tampered := strings.Join([]string{parts[0], otherParts[1], parts[2]}, ".")

	if _, err := ValidateToken(tampered, "unit-test-secret"); err == nil {
		t.Fatal("expected validation to fail for a tampered payload")
	}
}
