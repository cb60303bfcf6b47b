package model

import "time"

// StatusHistory records one status transition of a work order.
type StatusHistory struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	WorkOrderID string    `gorm:"type:varchar(64);not null;index" json:"work_order_id"`
	FromStatus  Status    `gorm:"type:varchar(32)" json:"from_status"`
	ToStatus    Status    `gorm:"type:varchar(32);not null" json:"to_status"`
	Reason      string    `gorm:"type:text" json:"reason"`
	Operator    string    `gorm:"type:varchar(64);not null" json:"operator"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName specifies the table name
func (StatusHistory) TableName() string {
	return "status_history"
}
