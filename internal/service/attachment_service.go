package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/auth"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/repository"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/storage"
)

// maxAttachmentSize caps uploads at 20 MiB.
const maxAttachmentSize = 20 << 20

// AttachmentService stores user uploads against work orders and streams
// them back. Visibility follows the work order's.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	workOrders  *WorkOrderService
	store       storage.ObjectStorage
}

// NewAttachmentService creates the attachment service.
func NewAttachmentService(
	attachments repository.AttachmentRepository,
	workOrders *WorkOrderService,
	store storage.ObjectStorage,
) *AttachmentService {
	return &AttachmentService{
		attachments: attachments,
		workOrders:  workOrders,
		store:       store,
	}
}

// Upload stores a file against the work order.
func (s *AttachmentService) Upload(ctx context.Context, workOrderID, fileName, contentType string, size int64, body io.Reader) (*model.Attachment, error) {
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if size > maxAttachmentSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, maxAttachmentSize)
	}

	// visibility check doubles as the existence check
	if _, err := s.workOrders.Get(ctx, workOrderID); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	key := fmt.Sprintf("workorders/%s/uploads/%s%s", workOrderID, id, filepath.Ext(fileName))
	if err := s.store.Upload(ctx, key, contentType, io.LimitReader(body, maxAttachmentSize)); err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	attachment := &model.Attachment{
		ID:          id,
		WorkOrderID: workOrderID,
		FileName:    fileName,
		StoragePath: key,
		ContentType: contentType,
		Size:        size,
		Kind:        model.AttachmentUserUpload,
		UploadedBy:  auth.UserID(ctx),
		CreatedAt:   time.Now(),
	}
	if err := s.attachments.Create(attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

// List returns the order's attachments for callers allowed to see it.
func (s *AttachmentService) List(ctx context.Context, workOrderID string) ([]*model.Attachment, error) {
	if _, err := s.workOrders.Get(ctx, workOrderID); err != nil {
		return nil, err
	}
	return s.attachments.FindByWorkOrder(workOrderID)
}

// Download streams one attachment. The caller must close the reader.
func (s *AttachmentService) Download(ctx context.Context, attachmentID string) (*model.Attachment, io.ReadCloser, error) {
	attachment, err := s.attachments.FindByID(attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: attachment %s", ErrNotFound, attachmentID)
		}
		return nil, nil, err
	}

	if _, err := s.workOrders.Get(ctx, attachment.WorkOrderID); err != nil {
		return nil, nil, err
	}

	body, err := s.store.Download(ctx, attachment.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return attachment, body, nil
}
