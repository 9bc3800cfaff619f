package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"markline/backend/config"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Role values carried in tokens.
const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// Claims are the custom JWT claims for work sessions and the admin console.
// Operator tokens carry the (session, pass, order) triple the scan
// processor is keyed on; admin tokens carry only the role.
type Claims struct {
	Role        string `json:"role"`
	SessionID   uint   `json:"session_id,omitempty"`
	PassID      uint   `json:"pass_id,omitempty"`
	OrderID     uint   `json:"order_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	jwtv5.RegisteredClaims
}

// Manager issues and verifies tokens.
type Manager struct {
	secret        []byte
	sessionTTL    time.Duration
	adminTokenTTL time.Duration
}

// NewManager creates the token manager from auth configuration.
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:        []byte(cfg.JWTSecret),
		sessionTTL:    cfg.SessionTTL,
		adminTokenTTL: cfg.AdminTokenTTL,
	}
}

// GenerateSessionToken issues an operator token bound to a work session.
func (m *Manager) GenerateSessionToken(sessionID, passID, orderID uint, displayName string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:        RoleOperator,
		SessionID:   sessionID,
		PassID:      passID,
		OrderID:     orderID,
		DisplayName: displayName,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.sessionTTL)),
			Issuer:    "markline",
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// GenerateAdminToken issues an admin-console token.
func (m *Manager) GenerateAdminToken() (string, error) {
	now := time.Now()
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.adminTokenTTL)),
			Issuer:    "markline",
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken verifies a token and returns its claims.
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
