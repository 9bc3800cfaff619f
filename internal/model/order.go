package model

// Order statuses.
const (
	OrderStatusNew    = "new"
	OrderStatusActive = "active"
	OrderStatusClosed = "closed"
)

// Order is one marking order, the unit of client work every pass,
// session, aggregation, and trained code model hangs off.
type Order struct {
	ID            uint        `gorm:"primaryKey"                          json:"id"`
	Client        string      `gorm:"type:varchar(255);not null"         json:"client"`
	Levels        StringArray `gorm:"type:text[];not null"               json:"levels"` // ordered subset of set|box|pallet|container
	EmployeeCount int         `gorm:"not null"                           json:"employee_count"`
	SetCapacity   *int        `json:"set_capacity,omitempty"`
	Status        string      `gorm:"type:varchar(16);not null;default:'new'" json:"status"`
	BaseModel

	Passes []Pass `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"passes,omitempty"`
}

// TableName fixes the table name.
func (Order) TableName() string { return "orders" }

// FirstLevel returns the bottom aggregation level of the order.
func (o *Order) FirstLevel() Level {
	if len(o.Levels) == 0 {
		return LevelSet
	}
	return Level(o.Levels[0])
}

// HasLevel reports whether the order aggregates at the given level.
func (o *Order) HasLevel(l Level) bool {
	for _, s := range o.Levels {
		if Level(s) == l {
			return true
		}
	}
	return false
}
