package jwtutil

import (
	"testing"

	"github.com/hostscout/concierge/pkg/config"
)

func initTestConfig(t *testing.T) {
	t.Helper()
	Initialize(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	initTestConfig(t)

	token, err := GenerateToken("owner@example.com", 42, 7, "Seaside Rentals", "owner")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Email != "owner@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.UserID != 42 || claims.PMCID != 7 {
		t.Errorf("ids = user %d, pmc %d", claims.UserID, claims.PMCID)
	}
	if claims.PMCName != "Seaside Rentals" || claims.Role != "owner" {
		t.Errorf("pmc_name = %q, role = %q", claims.PMCName, claims.Role)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	initTestConfig(t)

	token, err := GenerateToken("owner@example.com", 42, 7, "Seaside Rentals", "owner")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken(token + "x"); err == nil {
		t.Error("tampered token must not validate")
	}
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token must not validate")
	}
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	token, err := GenerateToken("a@b.c", 1, 1, "", "staff")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})
	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed with another key must not validate")
	}
}
