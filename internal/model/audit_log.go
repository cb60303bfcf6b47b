package model

import (
	"errors"
	"time"
)

// AuditLog records one user action against a resource.
type AuditLog struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID       string    `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Action       string    `gorm:"type:varchar(64);not null" json:"action"`
	ResourceType string    `gorm:"type:varchar(32);not null" json:"resource_type"`
	ResourceID   string    `gorm:"type:varchar(64);not null" json:"resource_id"`
	RequestID    string    `gorm:"type:varchar(64)" json:"request_id"`
	IP           string    `gorm:"type:varchar(45)" json:"ip"`
	UserAgent    string    `gorm:"type:text" json:"user_agent"`
	Details      []byte    `gorm:"type:jsonb" json:"details"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Validate validates the audit log model
func (l *AuditLog) Validate() error {
	if l.ID == "" {
		return errors.New("audit log ID is required")
	}
	if l.UserID == "" {
		return errors.New("audit log user ID is required")
	}
	if l.Action == "" {
		return errors.New("audit log action is required")
	}
	return nil
}
