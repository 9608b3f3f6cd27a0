package auth

import (
	"testing"
	"time"
)

func TestSignAndVerify(t *testing.T) {
	ts, err := NewHS256Service("secret", "issuer", time.Hour)
	if err != nil {
		t.Fatalf("NewHS256Service: %v", err)
	}

	token, err := ts.Sign(42, "a@example.com")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := ts.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("user id: got %d, want 42", claims.UserID)
	}
	if claims.Email != "a@example.com" {
		t.Errorf("email: got %q", claims.Email)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, _ := NewHS256Service("secret-a", "issuer", time.Hour)
	verifier, _ := NewHS256Service("secret-b", "issuer", time.Hour)

	token, err := signer.Sign(1, "a@example.com")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("Verify accepted a token signed with a different secret")
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	signer, _ := NewHS256Service("secret", "issuer-a", time.Hour)
	verifier, _ := NewHS256Service("secret", "issuer-b", time.Hour)

	token, err := signer.Sign(1, "a@example.com")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("Verify accepted a token from a different issuer")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	ts, _ := NewHS256Service("secret", "issuer", time.Hour)
	if _, err := ts.Verify("not-a-token"); err == nil {
		t.Fatal("Verify accepted garbage")
	}
}

func TestNewHS256ServiceValidation(t *testing.T) {
	if _, err := NewHS256Service("", "issuer", time.Hour); err == nil {
		t.Error("empty secret accepted")
	}
	if _, err := NewHS256Service("secret", "", time.Hour); err == nil {
		t.Error("empty issuer accepted")
	}
	if _, err := NewHS256Service("secret", "issuer", 0); err == nil {
		t.Error("zero ttl accepted")
	}
}

func TestSignRejectsBadUserID(t *testing.T) {
	ts, _ := NewHS256Service("secret", "issuer", time.Hour)
	if _, err := ts.Sign(0, "a@example.com"); err == nil {
		t.Error("Sign accepted user id 0")
	}
}
