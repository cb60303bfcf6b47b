package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/auth"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/document"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/metrics"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/repository"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/storage"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/workflow"
)

// CompletionService implements the completion workflow. The report is
// rendered and uploaded before anything is written: an upload failure
// leaves the order and its entries untouched. The database work is one
// transaction closing every open entry at the same captured instant,
// recomputing total_hours, recording the report attachment and flipping
// the status, so the report's figures always match the ledger.
type CompletionService struct {
	db            *gorm.DB
	orders        repository.WorkOrderRepository
	entries       repository.TimeEntryRepository
	assignments   repository.AssignmentRepository
	users         repository.UserRepository
	attachments   repository.AttachmentRepository
	store         storage.ObjectStorage
	renderer      document.Renderer
	notifications *NotificationService
	logger        *logrus.Logger
}

// NewCompletionService creates the completion service.
func NewCompletionService(
	db *gorm.DB,
	orders repository.WorkOrderRepository,
	entries repository.TimeEntryRepository,
	assignments repository.AssignmentRepository,
	users repository.UserRepository,
	attachments repository.AttachmentRepository,
	store storage.ObjectStorage,
	renderer document.Renderer,
	notifications *NotificationService,
	logger *logrus.Logger,
) *CompletionService {
	return &CompletionService{
		db:            db,
		orders:        orders,
		entries:       entries,
		assignments:   assignments,
		users:         users,
		attachments:   attachments,
		store:         store,
		renderer:      renderer,
		notifications: notifications,
		logger:        logger,
	}
}

// CompleteInput carries the completion request.
type CompleteInput struct {
	Remarks       string
	SignaturePNG  []byte // decoded client signature, required
	SignatureName string
}

// Complete finishes the work order: closes every open session at one
// captured instant, recomputes the hour total, stores the completion
// report and moves the order to completed.
func (s *CompletionService) Complete(ctx context.Context, workOrderID string, input CompleteInput) (*model.WorkOrder, error) {
	userID := auth.UserID(ctx)
	role := auth.RoleFromContext(ctx)

	if len(input.SignaturePNG) == 0 {
		return nil, fmt.Errorf("%w: signature is required", ErrValidation)
	}

	order, err := s.orders.FindByID(workOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: work order %s", ErrNotFound, workOrderID)
		}
		return nil, err
	}

	switch role {
	case model.RoleManager:
	case model.RoleEmployee:
		assigned, err := s.assignments.Exists(workOrderID, userID)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, fmt.Errorf("%w: not assigned to this work order", ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("%w: role %s cannot complete work orders", ErrForbidden, role)
	}

	switch order.Status {
	case model.StatusPending, model.StatusApproved, model.StatusInProgress:
	case model.StatusAwaitingApproval:
		return nil, fmt.Errorf("%w: work order is awaiting approval", ErrConflict)
	default:
		return nil, fmt.Errorf("%w: work order is %s", ErrConflict, order.Status)
	}

	// one captured instant closes every open entry and dates the report
	now := time.Now()

	entries, err := s.entries.FindByWorkOrder(workOrderID)
	if err != nil {
		return nil, err
	}

	lines, total, openCount := s.projectEntries(entries, now)

	assigns, err := s.assignments.FindByWorkOrder(workOrderID)
	if err != nil {
		return nil, err
	}
	workers := make([]string, 0, len(assigns))
	for _, a := range assigns {
		workers = append(workers, s.userName(a.UserID))
	}

	data := document.CompletionData{
		Reference:     order.Reference,
		Title:         order.Title,
		Description:   order.Description,
		ServiceType:   order.ServiceType,
		Priority:      string(order.Priority),
		ScheduledDate: order.ScheduledDate,
		ClientName:    s.userName(order.ClientID),
		Workers:       workers,
		CompletedBy:   s.userName(userID),
		CompletedAt:   now,
		TotalHours:    total,
		Entries:       lines,
		Remarks:       input.Remarks,
		SignaturePNG:  input.SignaturePNG,
		SignatureName: input.SignatureName,
	}

	pdf, err := s.renderer.RenderCompletionReport(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render completion report: %w", err)
	}

	key := fmt.Sprintf("workorders/%s/completion-%d.pdf", workOrderID, now.Unix())
	if err := s.store.Upload(ctx, key, "application/pdf", bytes.NewReader(pdf)); err != nil {
		return nil, fmt.Errorf("failed to store completion report: %w", err)
	}

	attachment := &model.Attachment{
		ID:          uuid.New().String(),
		WorkOrderID: workOrderID,
		FileName:    fmt.Sprintf("completion-%s.pdf", order.Reference),
		StoragePath: key,
		ContentType: "application/pdf",
		Size:        int64(len(pdf)),
		Kind:        model.AttachmentCompletionReport,
		UploadedBy:  userID,
		CreatedAt:   now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			if !e.Open() {
				continue
			}
			duration := now.Sub(e.StartTime).Hours()
			if duration < 0 {
				duration = 0
			}
			update := map[string]interface{}{
				"end_time":       now,
				"duration_hours": duration,
				"updated_at":     now,
			}
			// the completion note lands on the actor's own entry only
			if e.UserID == userID && input.Remarks != "" {
				update["note"] = input.Remarks
			}
			if err := tx.Model(&model.TimeEntry{}).
				Where("id = ? AND end_time IS NULL", e.ID).
				Updates(update).Error; err != nil {
				return err
			}
		}

		if err := recomputeTotalHours(tx, workOrderID); err != nil {
			return err
		}

		if err := tx.Create(attachment).Error; err != nil {
			return err
		}

		return workflow.Transition(tx, order, model.StatusCompleted, "work order completed", userID)
	})
	if err != nil {
		return nil, err
	}

	order.TotalHours = total
	metrics.RecordWorkOrderCompleted()
	for i := 0; i < openCount; i++ {
		metrics.RecordSessionClosed("completion")
	}

	s.logger.WithFields(logrus.Fields{
		"work_order_id": workOrderID,
		"reference":     order.Reference,
		"total_hours":   total,
		"report_key":    key,
	}).Info("work order completed")

	s.notifyCompletion(order)

	return order, nil
}

// projectEntries maps the ledger onto report lines, closing open
// entries at the captured instant, and returns the prospective total.
func (s *CompletionService) projectEntries(entries []*model.TimeEntry, now time.Time) ([]document.EntryLine, float64, int) {
	var lines []document.EntryLine
	var total float64
	openCount := 0

	names := map[string]string{}
	for _, e := range entries {
		end := now
		var hours float64
		if e.Open() {
			openCount++
			hours = now.Sub(e.StartTime).Hours()
			if hours < 0 {
				hours = 0
			}
		} else {
			end = *e.EndTime
			if e.DurationHours != nil {
				hours = *e.DurationHours
			}
		}
		total += hours

		name, ok := names[e.UserID]
		if !ok {
			name = s.userName(e.UserID)
			names[e.UserID] = name
		}

		lines = append(lines, document.EntryLine{
			WorkerName: name,
			StartTime:  e.StartTime,
			EndTime:    end,
			Hours:      hours,
			Note:       e.Note,
		})
	}
	return lines, total, openCount
}

// userName resolves a display name, falling back to the raw ID.
func (s *CompletionService) userName(userID string) string {
	if userID == "" {
		return ""
	}
	user, err := s.users.FindByID(userID)
	if err != nil {
		return userID
	}
	return user.Name
}

// notifyCompletion tells the client and every approved manager.
func (s *CompletionService) notifyCompletion(order *model.WorkOrder) {
	title := "Work order completed"
	body := fmt.Sprintf("Work order %s (%s) was completed with %s logged.",
		order.Reference, order.Title, document.FormatHours(order.TotalHours))
	data := map[string]interface{}{"work_order_id": order.ID}

	s.notifications.Dispatch(order.ClientID, model.NotifyWorkOrderCompleted, title, body, data)

	managers, err := s.users.FindApprovedManagers()
	if err != nil {
		s.logger.WithField("error", err).Error("failed to list managers for completion notice")
		return
	}
	for _, m := range managers {
		s.notifications.Dispatch(m.ID, model.NotifyWorkOrderCompleted, title, body, data)
	}
}
