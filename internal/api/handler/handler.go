package handler

import "markline/backend/internal/service"

// Handler aggregates every HTTP handler.
type Handler struct {
	Auth   *AuthHandler
	Scan   *ScanHandler
	Order  *OrderHandler
	Export *ExportHandler
}

// NewHandler creates the handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(svc.Auth),
		Scan:   NewScanHandler(svc.Scan, svc.Auth),
		Order:  NewOrderHandler(svc.Order, svc.SSCC),
		Export: NewExportHandler(svc.Export),
	}
}
