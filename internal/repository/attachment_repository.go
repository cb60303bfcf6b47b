package repository

import (
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"gorm.io/gorm"
)

// AttachmentRepository is the attachment store interface.
type AttachmentRepository interface {
	Create(attachment *model.Attachment) error
	FindByID(id string) (*model.Attachment, error)
	FindByWorkOrder(workOrderID string) ([]*model.Attachment, error)
}

type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates an attachment repository.
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

// Create inserts an attachment row.
func (r *attachmentRepository) Create(attachment *model.Attachment) error {
	return r.db.Create(attachment).Error
}

// FindByID finds an attachment by ID.
func (r *attachmentRepository) FindByID(id string) (*model.Attachment, error) {
	var attachment model.Attachment
	if err := r.db.Where("id = ?", id).First(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// FindByWorkOrder lists attachments of a work order, newest first.
func (r *attachmentRepository) FindByWorkOrder(workOrderID string) ([]*model.Attachment, error) {
	var attachments []*model.Attachment
	err := r.db.
		Where("work_order_id = ?", workOrderID).
		Order("created_at DESC").
		Find(&attachments).Error
	return attachments, err
}
