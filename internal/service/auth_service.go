package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"markline/backend/config"
	"markline/backend/internal/dto"
	"markline/backend/internal/model"
	"markline/backend/internal/repository"
	"markline/backend/internal/state"
	"markline/backend/pkg/jwt"
)

var (
	ErrBadgeNotFound = errors.New("badge not recognized")
	ErrOrderInactive = errors.New("order not active")
	ErrSessionActive = errors.New("session already active for this pass")
	ErrAdminPassword = errors.New("wrong admin password")
	ErrAdminDisabled = errors.New("admin console disabled")
)

// AuthService owns the session lifecycle: badge login, logout, and the
// admin-console password check.
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, caller ScanCaller) error
	AdminLogin(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	store  state.Store
	jwtMgr *jwt.Manager
	logger *zap.Logger
}

// NewAuthService creates the AuthService.
func NewAuthService(cfg *config.Config, repo *repository.Repository, store state.Store, jwtMgr *jwt.Manager, logger *zap.Logger) AuthService {
	return &authService{cfg: cfg, repo: repo, store: store, jwtMgr: jwtMgr, logger: logger}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	pass, err := s.repo.Pass.GetByToken(ctx, req.Badge)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadgeNotFound
		}
		s.logger.Error("pass lookup failed", zap.Error(err))
		return nil, err
	}

	order, err := s.repo.Order.GetByID(ctx, pass.OrderID)
	if err != nil {
		s.logger.Error("order lookup failed", zap.Uint("order_id", pass.OrderID), zap.Error(err))
		return nil, err
	}
	if order.Status != model.OrderStatusActive {
		return nil, ErrOrderInactive
	}

	// one live session per pass
	acquired, err := s.store.AcquireSessionLock(ctx, pass.ID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrSessionActive
	}

	session := &model.WorkSession{
		PassID:      pass.ID,
		DisplayName: req.Surname,
	}
	if err := s.repo.WorkSession.Create(ctx, session); err != nil {
		// release so a retry is possible
		_ = s.store.ReleaseSessionLock(ctx, pass.ID)
		s.logger.Error("create work session failed", zap.Uint("pass_id", pass.ID), zap.Error(err))
		return nil, err
	}

	token, err := s.jwtMgr.GenerateSessionToken(session.ID, pass.ID, order.ID, req.Surname)
	if err != nil {
		_ = s.store.ReleaseSessionLock(ctx, pass.ID)
		s.logger.Error("generate session token failed", zap.Error(err))
		return nil, err
	}

	senior, err := s.repo.Pass.Senior(ctx, order.ID)
	if err != nil {
		s.logger.Error("senior lookup failed", zap.Uint("order_id", order.ID), zap.Error(err))
		return nil, err
	}

	orderStatus := dto.OrderStatusNeedsTraining
	if mdl, err := s.store.GetCodeModel(ctx, order.ID); err == nil && mdl != nil && mdl.LearningSuccessful {
		orderStatus = dto.OrderStatusOperational
	}

	s.logger.Info("operator logged in",
		zap.Uint("pass_id", pass.ID),
		zap.Uint("order_id", order.ID),
		zap.Uint("session_id", session.ID),
	)

	return &dto.LoginResponse{
		Token:       token,
		SessionID:   session.ID,
		PassID:      pass.ID,
		OrderID:     order.ID,
		DisplayName: req.Surname,
		IsSenior:    senior.ID == pass.ID,
		OrderStatus: orderStatus,
	}, nil
}

func (s *authService) Logout(ctx context.Context, caller ScanCaller) error {
	if err := s.store.ClearEmployeeState(ctx, caller.PassID); err != nil {
		return err
	}
	if err := s.store.ReleaseSessionLock(ctx, caller.PassID); err != nil {
		return err
	}
	// end-time stamp is best effort
	if err := s.repo.WorkSession.Finish(ctx, caller.SessionID, time.Now()); err != nil {
		s.logger.Warn("stamp session end failed", zap.Uint("session_id", caller.SessionID), zap.Error(err))
	}
	s.logger.Info("operator logged out", zap.Uint("pass_id", caller.PassID))
	return nil
}

func (s *authService) AdminLogin(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	hash := s.cfg.Auth.AdminPassHash
	if hash == "" {
		return nil, ErrAdminDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, ErrAdminPassword
	}
	token, err := s.jwtMgr.GenerateAdminToken()
	if err != nil {
		return nil, err
	}
	return &dto.AdminLoginResponse{Token: token}, nil
}
