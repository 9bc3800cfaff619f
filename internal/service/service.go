package service

import (
	"go.uber.org/zap"

	"markline/backend/config"
	"markline/backend/internal/repository"
	"markline/backend/internal/state"
	"markline/backend/pkg/jwt"
)

// Service aggregates every business service.
type Service struct {
	Auth   AuthService
	Scan   ScanService
	Order  OrderService
	Export ExportService
	SSCC   SSCCGenerator
}

// NewService wires the service aggregate.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	store state.Store,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:   NewAuthService(cfg, repo, store, jwtMgr, logger),
		Scan:   NewScanService(repo, store, logger),
		Order:  NewOrderService(repo, logger),
		Export: NewExportService(repo, store, logger),
		SSCC:   NewSSCCGenerator(store),
	}
}
