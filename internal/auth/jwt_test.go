package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAccessToken_Claims(t *testing.T) {
	token, err := GenerateAccessToken("test-secret", "user-123", "ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateToken("test-secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.TokenType != "access" {
		t.Errorf("expected token type access, got %q", claims.TokenType)
	}
	if claims.UserID != "user-123" {
		t.Errorf("expected user ID user-123, got %q", claims.UserID)
	}
	if claims.Username != "ada" {
		t.Errorf("expected username ada, got %q", claims.Username)
	}
}

func TestGenerateRefreshToken_Claims(t *testing.T) {
	token, err := GenerateRefreshToken("test-secret", "user-123", "ada", "tok-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateToken("test-secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("expected token type refresh, got %q", claims.TokenType)
	}
	if claims.TokenID != "tok-1" {
		t.Errorf("expected token ID tok-1, got %q", claims.TokenID)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, _ := GenerateAccessToken("secret-a", "user-123", "ada")
	if _, err := ValidateToken("secret-b", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	if _, err := ValidateToken("test-secret", "not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	claims := &Claims{
		UserID:    "user-123",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := ValidateToken("test-secret", token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestValidateToken_RejectsNonHMAC(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-123"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := ValidateToken("test-secret", signed); err == nil {
		t.Fatal("expected error for alg=none token")
	}
}
