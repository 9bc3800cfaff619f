package jwt

import (
	"testing"
	"time"

	"markline/backend/config"
)

func newTestManager(sessionTTL time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:     "test-secret-at-least-16-chars",
		SessionTTL:    sessionTTL,
		AdminTokenTTL: time.Hour,
	})
}

func TestSessionTokenRoundTrip(t *testing.T) {
	m := newTestManager(time.Hour)

	token, err := m.GenerateSessionToken(42, 7, 3, "Ivanova")
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Role != RoleOperator {
		t.Errorf("role = %q, want %q", claims.Role, RoleOperator)
	}
	if claims.SessionID != 42 || claims.PassID != 7 || claims.OrderID != 3 {
		t.Errorf("claims = (%d, %d, %d), want (42, 7, 3)",
			claims.SessionID, claims.PassID, claims.OrderID)
	}
	if claims.DisplayName != "Ivanova" {
		t.Errorf("display name = %q, want %q", claims.DisplayName, "Ivanova")
	}
}

func TestAdminTokenRole(t *testing.T) {
	m := newTestManager(time.Hour)

	token, err := m.GenerateAdminToken()
	if err != nil {
		t.Fatalf("GenerateAdminToken: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("role = %q, want %q", claims.Role, RoleAdmin)
	}
	if claims.SessionID != 0 || claims.PassID != 0 {
		t.Errorf("admin token must not carry session claims")
	}
}

func TestExpiredToken(t *testing.T) {
	m := newTestManager(-time.Minute)

	token, err := m.GenerateSessionToken(1, 1, 1, "x")
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}

	if _, err := m.ParseToken(token); err != ErrTokenExpired {
		t.Errorf("ParseToken error = %v, want ErrTokenExpired", err)
	}
}

func TestTamperedToken(t *testing.T) {
	m := newTestManager(time.Hour)

	token, err := m.GenerateSessionToken(1, 1, 1, "x")
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}

	other := NewManager(&config.AuthConfig{
		JWTSecret:     "another-secret-16-characters",
		SessionTTL:    time.Hour,
		AdminTokenTTL: time.Hour,
	})
	if _, err := other.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("ParseToken error = %v, want ErrTokenInvalid", err)
	}
}
