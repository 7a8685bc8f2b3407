package auth_test

import (
	"testing"

	"github.com/elpijiku/api/internal/auth"
	"github.com/elpijiku/api/internal/enum"
	"github.com/google/uuid"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()
	role := enum.UserRoleOperator

	token, err := auth.GenerateToken(secret, userID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
	}
	if claims.Role != role {
		t.Errorf("role: got %v, want %v", claims.Role, role)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken("secret-a", uuid.New(), enum.UserRoleAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateToken("secret-b", token)
	if err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	_, err := auth.ValidateToken("secret", "not-a-jwt")
	if err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}
