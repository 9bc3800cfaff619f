package dto

import "time"

// ── order administration DTOs ──

// CreateOrderRequest registers a new marking order. Passes are minted
// with it, one per employee, the first one being the shift-senior.
type CreateOrderRequest struct {
	Client        string   `json:"client"         binding:"required,max=255"`
	Levels        []string `json:"levels"         binding:"required,min=1"`
	EmployeeCount int      `json:"employee_count" binding:"required,min=1,max=500"`
	SetCapacity   *int     `json:"set_capacity"   binding:"omitempty,min=2"`
}

// OrderResponse is the admin view of one order.
type OrderResponse struct {
	ID            uint      `json:"id"`
	Client        string    `json:"client"`
	Levels        []string  `json:"levels"`
	EmployeeCount int       `json:"employee_count"`
	SetCapacity   *int      `json:"set_capacity,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// PassResponse is the admin view of one badge, for printing.
type PassResponse struct {
	ID          uint    `json:"id"`
	AccessToken string  `json:"access_token"`
	Active      bool    `json:"active"`
	Name        *string `json:"name,omitempty"`
	IsSenior    bool    `json:"is_senior"`
}

// UndoResponse reports an admin package removal.
type UndoResponse struct {
	ParentCode string `json:"parent_code"`
	Removed    int64  `json:"removed"`
}

// SSCCResponse carries one freshly generated transport code.
type SSCCResponse struct {
	SSCC string `json:"sscc"`
}
