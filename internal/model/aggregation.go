package model

import "time"

// Aggregation is one confirmed parent→child physical inclusion, with
// full provenance. A completed unit with N children inserts N rows
// sharing parent_code, all in one transaction.
type Aggregation struct {
	ID         uint      `gorm:"primaryKey"                         json:"id"`
	OrderID    uint      `gorm:"not null;uniqueIndex:idx_aggregations_order_child,priority:1" json:"order_id"`
	PassID     uint      `gorm:"not null"                           json:"pass_id"`
	SessionID  uint      `gorm:"not null"                           json:"session_id"`
	ChildCode  string    `gorm:"type:text;not null;uniqueIndex:idx_aggregations_order_child,priority:2" json:"child_code"`
	ChildType  Level     `gorm:"type:varchar(16);not null"          json:"child_type"`
	ParentCode string    `gorm:"type:text;not null;index:idx_aggregations_order_parent" json:"parent_code"`
	ParentType Level     `gorm:"type:varchar(16);not null"          json:"parent_type"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName fixes the table name.
func (Aggregation) TableName() string { return "aggregations" }
