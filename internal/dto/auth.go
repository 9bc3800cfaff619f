package dto

// ── auth DTOs ──

// LoginRequest is a badge login from the operator console.
type LoginRequest struct {
	Badge   string `json:"badge"   binding:"required"`
	Surname string `json:"surname" binding:"required,min=2,max=100"`
}

// LoginResponse carries the work-session token and enough context to
// render the operator screen before the first scan.
type LoginResponse struct {
	Token       string `json:"token"`
	SessionID   uint   `json:"session_id"`
	PassID      uint   `json:"pass_id"`
	OrderID     uint   `json:"order_id"`
	DisplayName string `json:"display_name"`
	IsSenior    bool   `json:"is_senior"`
	OrderStatus string `json:"order_status"` // NEEDS_TRAINING | OPERATIONAL
}

// AdminLoginRequest is the admin-console password login.
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse carries the admin token.
type AdminLoginResponse struct {
	Token string `json:"token"`
}
