package model

import "time"

// WorkSession is a time-bounded interval of one pass actively scanning.
// At most one is active per pass, enforced by the session lock in the
// session store.
type WorkSession struct {
	ID          uint       `gorm:"primaryKey"                         json:"id"`
	PassID      uint       `gorm:"not null;index"                     json:"pass_id"`
	DisplayName string     `gorm:"type:varchar(100);not null"         json:"display_name"`
	StartedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`

	Pass *Pass `gorm:"foreignKey:PassID;references:ID" json:"pass,omitempty"`
}

// TableName fixes the table name.
func (WorkSession) TableName() string { return "work_sessions" }
