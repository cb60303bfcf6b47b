package model

import (
	"errors"
	"time"
)

// Notification dispatch statuses.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification types emitted by the lifecycle core.
const (
	NotifyRequestSubmitted   = "request_submitted"
	NotifyRequestApproved    = "request_approved"
	NotifyRequestRejected    = "request_rejected"
	NotifyWorkerAssigned     = "worker_assigned"
	NotifyWorkOrderCompleted = "work_order_completed"
)

// Notification is a persisted in-app notification that doubles as the
// outbox row for email dispatch. Status and RetryCount track delivery;
// delivery failures never propagate to the emitting workflow.
type Notification struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID     string    `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Type       string    `gorm:"type:varchar(32);not null;index" json:"type"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	Body       string    `gorm:"type:text" json:"body"`
	Data       []byte    `gorm:"type:jsonb" json:"data"`
	Read       bool      `gorm:"not null;default:false;index" json:"read"`
	Status     string    `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	RetryCount int       `gorm:"default:0" json:"retry_count"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name
func (Notification) TableName() string {
	return "notifications"
}

// Validate validates the notification model
func (n *Notification) Validate() error {
	if n.ID == "" {
		return errors.New("notification ID is required")
	}
	if n.UserID == "" {
		return errors.New("notification user ID is required")
	}
	if n.Type == "" {
		return errors.New("notification type is required")
	}
	return nil
}
