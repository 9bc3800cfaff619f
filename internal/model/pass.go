package model

import "time"

// Pass is a physical badge granting one worker access to one order.
// The badge value (AccessToken) is opaque; the pass with the lowest id
// under an order is the shift-senior.
type Pass struct {
	ID          uint      `gorm:"primaryKey"                         json:"id"`
	OrderID     uint      `gorm:"not null;index"                     json:"order_id"`
	AccessToken string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"access_token"`
	Active      bool      `gorm:"not null;default:true"              json:"active"`
	Name        *string   `gorm:"type:varchar(100)"                  json:"name,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Order *Order `gorm:"foreignKey:OrderID;references:ID" json:"order,omitempty"`
}

// TableName fixes the table name.
func (Pass) TableName() string { return "passes" }
