package auth

import (
	"testing"
	"time"
)

func TestHS256RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	claims := Claims{
		Sub:  "cust-1",
		Role: RoleCustomer,
		Iat:  now.Unix(),
		Exp:  now.Add(1 * time.Hour).Unix(),
	}
	secret := "test-secret"

	token, err := SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, secret, now)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Sub != claims.Sub || parsed.Role != claims.Role {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
	if _, err := ParseAndVerifyHS256(token, "wrong-secret", now); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
	if _, err := ParseAndVerifyHS256(token, secret, now.Add(2*time.Hour)); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestBearerToken(t *testing.T) {
	if tok, ok := BearerToken("Bearer abc.def.ghi"); !ok || tok != "abc.def.ghi" {
		t.Fatalf("unexpected token %q ok=%v", tok, ok)
	}
	if _, ok := BearerToken("Basic dXNlcjpwYXNz"); ok {
		t.Fatal("expected non-bearer scheme to be rejected")
	}
	if _, ok := BearerToken("Bearer "); ok {
		t.Fatal("expected empty token to be rejected")
	}
}
