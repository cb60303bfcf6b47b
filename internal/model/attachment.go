package model

import (
	"errors"
	"time"
)

// Attachment kinds.
const (
	AttachmentUserUpload       = "user_upload"
	AttachmentCompletionReport = "completion_report"
)

// Attachment is a stored object linked to a work order. The generated
// completion report is recorded as an attachment of kind completion_report.
type Attachment struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	WorkOrderID string    `gorm:"type:varchar(64);not null;index" json:"work_order_id"`
	FileName    string    `gorm:"type:varchar(255);not null" json:"file_name"`
	StoragePath string    `gorm:"type:varchar(512);not null" json:"storage_path"`
	ContentType string    `gorm:"type:varchar(128)" json:"content_type"`
	Size        int64     `json:"size"`
	Kind        string    `gorm:"type:varchar(32);not null;default:'user_upload'" json:"kind"`
	UploadedBy  string    `gorm:"type:varchar(64);index" json:"uploaded_by"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name
func (Attachment) TableName() string {
	return "attachments"
}

// Validate validates the attachment model
func (a *Attachment) Validate() error {
	if a.ID == "" {
		return errors.New("attachment ID is required")
	}
	if a.WorkOrderID == "" {
		return errors.New("attachment work order ID is required")
	}
	if a.StoragePath == "" {
		return errors.New("attachment storage path is required")
	}
	return nil
}
