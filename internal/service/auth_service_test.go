package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"markline/backend/config"
	"markline/backend/internal/dto"
	"markline/backend/internal/model"
	"markline/backend/pkg/jwt"
)

func setupAuthService(adminHash string) (AuthService, *testRepos, *memStore) {
	repos := newTestRepos()
	store := newMemStore()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret-test-secret-test-secret",
			SessionTTL:    12 * time.Hour,
			AdminTokenTTL: time.Hour,
			AdminPassHash: adminHash,
		},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, repos.toRepository(), store, jwtMgr, zap.NewNop())
	return svc, repos, store
}

func TestAuth_Login_Success(t *testing.T) {
	svc, repos, _ := setupAuthService("")
	seedOrder(repos, []string{"set", "box"}, nil)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Badge: seniorBadge, Surname: "Ivanova"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("token missing")
	}
	if !resp.IsSenior {
		t.Error("the lowest pass id is the shift-senior")
	}
	if resp.OrderStatus != dto.OrderStatusNeedsTraining {
		t.Errorf("untrained order should report NEEDS_TRAINING, got %s", resp.OrderStatus)
	}
	if resp.DisplayName != "Ivanova" {
		t.Errorf("unexpected display name %q", resp.DisplayName)
	}
}

func TestAuth_Login_TrainedOrderReportsOperational(t *testing.T) {
	svc, repos, store := setupAuthService("")
	order := seedOrder(repos, []string{"set", "box"}, nil)
	store.models[order.ID] = trainedModel()

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Badge: workerBadge, Surname: "Petrov"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.OrderStatus != dto.OrderStatusOperational {
		t.Errorf("expected OPERATIONAL, got %s", resp.OrderStatus)
	}
	if resp.IsSenior {
		t.Error("the worker pass is not senior")
	}
}

func TestAuth_Login_UnknownBadge(t *testing.T) {
	svc, repos, _ := setupAuthService("")
	seedOrder(repos, []string{"set", "box"}, nil)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Badge: "no-such-badge", Surname: "X"})
	if !errors.Is(err, ErrBadgeNotFound) {
		t.Errorf("expected ErrBadgeNotFound, got %v", err)
	}
}

func TestAuth_Login_InactiveOrder(t *testing.T) {
	svc, repos, _ := setupAuthService("")
	order := seedOrder(repos, []string{"set", "box"}, nil)
	order.Status = model.OrderStatusNew

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Badge: seniorBadge, Surname: "X"})
	if !errors.Is(err, ErrOrderInactive) {
		t.Errorf("expected ErrOrderInactive, got %v", err)
	}
}

func TestAuth_Login_SecondSessionRejected(t *testing.T) {
	svc, repos, _ := setupAuthService("")
	seedOrder(repos, []string{"set", "box"}, nil)
	ctx := context.Background()

	if _, err := svc.Login(ctx, &dto.LoginRequest{Badge: seniorBadge, Surname: "First"}); err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	_, err := svc.Login(ctx, &dto.LoginRequest{Badge: seniorBadge, Surname: "Second"})
	if !errors.Is(err, ErrSessionActive) {
		t.Errorf("expected ErrSessionActive, got %v", err)
	}
}

func TestAuth_Logout_FreesThePass(t *testing.T) {
	svc, repos, store := setupAuthService("")
	seedOrder(repos, []string{"set", "box"}, nil)
	ctx := context.Background()

	first, err := svc.Login(ctx, &dto.LoginRequest{Badge: seniorBadge, Surname: "First"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	caller := ScanCaller{SessionID: first.SessionID, PassID: first.PassID, OrderID: first.OrderID}
	if err := svc.Logout(ctx, caller); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if store.states[first.PassID] != nil {
		t.Error("employee state should be cleared on logout")
	}
	if repos.workSession.sessions[first.SessionID].EndedAt == nil {
		t.Error("session end not stamped")
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Badge: seniorBadge, Surname: "Second"}); err != nil {
		t.Errorf("relogin after logout failed: %v", err)
	}
}

func TestAuth_AdminLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("warehouse42"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	svc, _, _ := setupAuthService(string(hash))
	ctx := context.Background()

	resp, err := svc.AdminLogin(ctx, &dto.AdminLoginRequest{Password: "warehouse42"})
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("admin token missing")
	}

	_, err = svc.AdminLogin(ctx, &dto.AdminLoginRequest{Password: "wrong"})
	if !errors.Is(err, ErrAdminPassword) {
		t.Errorf("expected ErrAdminPassword, got %v", err)
	}
}

func TestAuth_AdminLogin_Disabled(t *testing.T) {
	svc, _, _ := setupAuthService("")

	_, err := svc.AdminLogin(context.Background(), &dto.AdminLoginRequest{Password: "anything"})
	if !errors.Is(err, ErrAdminDisabled) {
		t.Errorf("expected ErrAdminDisabled, got %v", err)
	}
}
