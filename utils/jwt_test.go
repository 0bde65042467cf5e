package utils

import (
	"testing"
	"time"

	"github.com/cppla/yatube/config"
)

func TestTokenRoundTrip(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "first-secret"})

	token, exp, err := GenerateToken(42, "leo", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "leo" {
		t.Fatalf("claims = %+v", claims)
	}

	expired, _, err := GenerateToken(42, "leo", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(expired); err == nil {
		t.Fatalf("expired token accepted")
	}

	config.Set(config.AppConfig{JWTSecret: "rotated-secret"})
	if _, err := ParseToken(token); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
}
