package model

import (
	"errors"
	"time"
)

// Assignment links a worker to a work order. Assignments gate who may
// start sessions on the order and drive notification routing.
type Assignment struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	WorkOrderID string    `gorm:"type:varchar(64);not null;index:idx_assignments_order_user,unique" json:"work_order_id"`
	UserID      string    `gorm:"type:varchar(64);not null;index:idx_assignments_order_user,unique" json:"user_id"`
	AssignedBy  string    `gorm:"type:varchar(64)" json:"assigned_by"`
	AssignedAt  time.Time `gorm:"not null" json:"assigned_at"`
}

// TableName specifies the table name
func (Assignment) TableName() string {
	return "assignments"
}

// Validate validates the assignment model
func (a *Assignment) Validate() error {
	if a.ID == "" {
		return errors.New("assignment ID is required")
	}
	if a.WorkOrderID == "" {
		return errors.New("assignment work order ID is required")
	}
	if a.UserID == "" {
		return errors.New("assignment user ID is required")
	}
	return nil
}
