package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"markline/backend/internal/dto"
	"markline/backend/internal/service"
	"markline/backend/pkg/response"
)

// AuthHandler owns badge login, logout and the admin-console login.
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login is a badge login from the operator console.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadgeNotFound):
			response.Error(c, http.StatusUnauthorized, 11001, "badge not recognized")
		case errors.Is(err, service.ErrOrderInactive):
			response.Error(c, http.StatusConflict, 11002, "order not active")
		case errors.Is(err, service.ErrSessionActive):
			response.Error(c, http.StatusConflict, 11003, "session already active for this badge")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Logout ends the caller's work session.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), caller); err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// AdminLogin exchanges the console password for an admin token.
// POST /api/v1/auth/admin
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	result, err := h.authSvc.AdminLogin(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAdminPassword):
			response.Error(c, http.StatusUnauthorized, 11004, "wrong password")
		case errors.Is(err, service.ErrAdminDisabled):
			response.Error(c, http.StatusForbidden, 11005, "admin console disabled")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}
