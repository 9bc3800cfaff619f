package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"markline/backend/internal/dto"
	"markline/backend/internal/service"
	"markline/backend/pkg/response"
)

// ScanHandler feeds scanner input into the aggregation processor.
type ScanHandler struct {
	scanSvc service.ScanService
	authSvc service.AuthService
}

// NewScanHandler creates a ScanHandler.
func NewScanHandler(scanSvc service.ScanService, authSvc service.AuthService) *ScanHandler {
	return &ScanHandler{scanSvc: scanSvc, authSvc: authSvc}
}

// Scan runs one processor invocation. The processor reports outcomes
// in the response body, so this endpoint answers 200 for business
// errors too; non-200 is reserved for transport and auth problems.
// POST /api/v1/scan
func (h *ScanHandler) Scan(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	result := h.scanSvc.Scan(c.Request.Context(), caller, req.ScannedCode)

	// the logout command terminates the session server-side as well
	if result.Command == dto.CommandLogout {
		if err := h.authSvc.Logout(c.Request.Context(), caller); err != nil {
			_ = c.Error(err)
		}
	}

	c.JSON(http.StatusOK, result)
}

// State returns the caller's session snapshot without consuming a scan.
// GET /api/v1/session/state
func (h *ScanHandler) State(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.scanSvc.State(c.Request.Context(), caller)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
