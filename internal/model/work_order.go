package model

import (
	"errors"
	"time"
)

// Status is the lifecycle status of a work order.
type Status string

const (
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusPending          Status = "pending"
	StatusApproved         Status = "approved"
	StatusInProgress       Status = "in_progress"
	StatusCompleted        Status = "completed"
	StatusCancelled        Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAwaitingApproval, StatusPending, StatusApproved,
		StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Priority of a work order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// WorkOrder is a service request tracked from submission to completion.
// TotalHours is a denormalized sum over the order's time entries; it is
// recomputed inside the same transaction as every entry close, edit or
// delete. The completion report re-sums from the entries themselves.
type WorkOrder struct {
	ID            string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Reference     string     `gorm:"type:varchar(32);not null;uniqueIndex" json:"reference"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Status        Status     `gorm:"type:varchar(32);not null;index" json:"status"`
	Priority      Priority   `gorm:"type:varchar(16);not null;index" json:"priority"`
	ServiceType   string     `gorm:"type:varchar(64)" json:"service_type"`
	ScheduledDate *time.Time `gorm:"index" json:"scheduled_date"`
	Notes         string     `gorm:"type:text" json:"notes"`
	TotalHours    float64    `gorm:"not null;default:0" json:"total_hours"`
	ClientID      string     `gorm:"type:varchar(64);not null;index" json:"client_id"`
	CreatedBy     string     `gorm:"type:varchar(64);index" json:"created_by"`
	CreatedAt     time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`

	Assignments []*Assignment `gorm:"foreignKey:WorkOrderID" json:"assignments,omitempty"`
	TimeEntries []*TimeEntry  `gorm:"foreignKey:WorkOrderID" json:"time_entries,omitempty"`
	Attachments []*Attachment `gorm:"foreignKey:WorkOrderID" json:"attachments,omitempty"`
}

// TableName specifies the table name
func (WorkOrder) TableName() string {
	return "work_orders"
}

// Validate validates the work order model
func (w *WorkOrder) Validate() error {
	if w.ID == "" {
		return errors.New("work order ID is required")
	}
	if w.Reference == "" {
		return errors.New("work order reference is required")
	}
	if w.Title == "" {
		return errors.New("work order title is required")
	}
	if !w.Status.Valid() {
		return errors.New("work order status is invalid")
	}
	if !w.Priority.Valid() {
		return errors.New("work order priority is invalid")
	}
	if w.ClientID == "" {
		return errors.New("work order client ID is required")
	}
	return nil
}
