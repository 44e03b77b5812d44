package auth

import (
	"testing"

	"github.com/quangtn/voicelink/internal/config"
	"github.com/quangtn/voicelink/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	config.AppConfig.Auth.JWTSecret = "test-secret"
	config.AppConfig.Auth.TokenExpiry = "1h"

	user := &model.User{ID: 42, Username: "alice", Role: "admin"}
	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want admin", claims.Role)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	config.AppConfig.Auth.JWTSecret = "test-secret"

	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	config.AppConfig.Auth.JWTSecret = "secret-one"
	token, err := GenerateToken(&model.User{ID: 1, Role: "user"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	config.AppConfig.Auth.JWTSecret = "secret-two"
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected signature validation to fail")
	}
}
