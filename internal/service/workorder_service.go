package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/auth"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/metrics"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/repository"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/utils"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/workflow"
)

// WorkOrderService implements the work order lifecycle outside of time
// tracking: creation, the approval workflow for client requests, manager
// edits, assignment, and cancellation.
type WorkOrderService struct {
	db            *gorm.DB
	orders        repository.WorkOrderRepository
	assignments   repository.AssignmentRepository
	entries       repository.TimeEntryRepository
	users         repository.UserRepository
	statusHistory repository.StatusHistoryRepository
	notifications *NotificationService
	logger        *logrus.Logger
}

// NewWorkOrderService creates the work order service.
func NewWorkOrderService(
	db *gorm.DB,
	orders repository.WorkOrderRepository,
	assignments repository.AssignmentRepository,
	entries repository.TimeEntryRepository,
	users repository.UserRepository,
	statusHistory repository.StatusHistoryRepository,
	notifications *NotificationService,
	logger *logrus.Logger,
) *WorkOrderService {
	return &WorkOrderService{
		db:            db,
		orders:        orders,
		assignments:   assignments,
		entries:       entries,
		users:         users,
		statusHistory: statusHistory,
		notifications: notifications,
		logger:        logger,
	}
}

// CreateWorkOrderInput carries a new work order.
type CreateWorkOrderInput struct {
	Title         string
	Description   string
	Priority      model.Priority
	ServiceType   string
	ScheduledDate *time.Time
	Notes         string
	ClientID      string // ignored for client callers, who always create for themselves
}

// UpdateWorkOrderInput carries a manager's edit. Nil fields are left
// unchanged. A Status change bypasses the transition graph and is
// recorded in history as an override.
type UpdateWorkOrderInput struct {
	Title         *string
	Description   *string
	Priority      *model.Priority
	ServiceType   *string
	ScheduledDate *time.Time
	Notes         *string
	Status        *model.Status
}

// Create creates a work order. Client callers produce a request in
// awaiting_approval and the managers are notified; manager callers
// create directly in pending.
func (s *WorkOrderService) Create(ctx context.Context, input CreateWorkOrderInput) (*model.WorkOrder, error) {
	userID := auth.UserID(ctx)
	role := auth.RoleFromContext(ctx)

	if err := utils.ValidateTitle(input.Title); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.Priority == "" {
		input.Priority = model.PriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, input.Priority)
	}

	var status model.Status
	var clientID string
	switch role {
	case model.RoleClient:
		status = model.StatusAwaitingApproval
		clientID = userID
	case model.RoleManager:
		status = model.StatusPending
		clientID = input.ClientID
		if err := utils.ValidateID(clientID); err != nil {
			return nil, fmt.Errorf("%w: client_id: %v", ErrValidation, err)
		}
	default:
		return nil, fmt.Errorf("%w: role %s cannot create work orders", ErrForbidden, role)
	}

	now := time.Now()
	order := &model.WorkOrder{
		ID:            uuid.New().String(),
		Reference:     newReference(now),
		Title:         utils.SanitizeString(strings.TrimSpace(input.Title)),
		Description:   utils.SanitizeString(input.Description),
		Status:        status,
		Priority:      input.Priority,
		ServiceType:   input.ServiceType,
		ScheduledDate: input.ScheduledDate,
		Notes:         utils.SanitizeString(input.Notes),
		ClientID:      clientID,
		CreatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		history := &model.StatusHistory{
			ID:          uuid.New().String(),
			WorkOrderID: order.ID,
			ToStatus:    status,
			Reason:      "created",
			Operator:    userID,
			CreatedAt:   now,
		}
		return tx.Create(history).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordWorkOrderCreated()
	s.logger.WithFields(logrus.Fields{
		"work_order_id": order.ID,
		"reference":     order.Reference,
		"status":        order.Status,
	}).Info("work order created")

	if role == model.RoleClient {
		s.notifyManagers(model.NotifyRequestSubmitted,
			"New work order request",
			fmt.Sprintf("Work order %s (%s) awaits approval.", order.Reference, order.Title),
			order)
	}

	return order, nil
}

// Get returns one work order with its related rows, subject to role
// scoping. Invisible orders read as not found.
func (s *WorkOrderService) Get(ctx context.Context, id string) (*model.WorkOrder, error) {
	userID := auth.UserID(ctx)
	role := auth.RoleFromContext(ctx)

	order, err := s.orders.FindByIDWithRelated(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: work order %s", ErrNotFound, id)
		}
		return nil, err
	}

	switch role {
	case model.RoleManager:
	case model.RoleClient:
		if order.ClientID != userID {
			return nil, fmt.Errorf("%w: work order %s", ErrNotFound, id)
		}
	case model.RoleEmployee:
		assigned, err := s.assignments.Exists(id, userID)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, fmt.Errorf("%w: work order %s", ErrNotFound, id)
		}
	default:
		return nil, ErrForbidden
	}

	return order, nil
}

// List returns work orders matching the filter. Clients only see their
// own orders and employees only their assignments, whatever the filter
// says.
func (s *WorkOrderService) List(ctx context.Context, filter *repository.WorkOrderFilter, page, pageSize int) ([]*model.WorkOrder, int64, error) {
	userID := auth.UserID(ctx)
	role := auth.RoleFromContext(ctx)

	if filter == nil {
		filter = &repository.WorkOrderFilter{}
	}
	switch role {
	case model.RoleManager:
	case model.RoleClient:
		filter.ClientID = &userID
	case model.RoleEmployee:
		filter.AssignedTo = &userID
	default:
		return nil, 0, ErrForbidden
	}

	return s.orders.FindByFilter(filter, page, pageSize)
}

// Update applies a manager's edit.
func (s *WorkOrderService) Update(ctx context.Context, id string, input UpdateWorkOrderInput) (*model.WorkOrder, error) {
	userID := auth.UserID(ctx)
	if auth.RoleFromContext(ctx) != model.RoleManager {
		return nil, fmt.Errorf("%w: only managers may edit work orders", ErrForbidden)
	}

	order, err := s.loadOrder(id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if err := utils.ValidateTitle(*input.Title); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		order.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		order.Description = *input.Description
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *input.Priority)
		}
		order.Priority = *input.Priority
	}
	if input.ServiceType != nil {
		order.ServiceType = *input.ServiceType
	}
	if input.ScheduledDate != nil {
		order.ScheduledDate = input.ScheduledDate
	}
	if input.Notes != nil {
		order.Notes = *input.Notes
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if input.Status != nil && *input.Status != order.Status {
			if err := workflow.ForceSet(tx, order, *input.Status, "manager edit", userID); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
		}
		order.UpdatedAt = time.Now()
		return tx.Save(order).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Approve moves a client request from awaiting_approval to pending,
// optionally attaching a scheduled date, and notifies the client.
func (s *WorkOrderService) Approve(ctx context.Context, id string, scheduledDate *time.Time) (*model.WorkOrder, error) {
	userID := auth.UserID(ctx)
	if auth.RoleFromContext(ctx) != model.RoleManager {
		return nil, fmt.Errorf("%w: only managers may decide requests", ErrForbidden)
	}

	order, err := s.loadOrder(id)
	if err != nil {
		return nil, err
	}
	if order.Status != model.StatusAwaitingApproval {
		return nil, fmt.Errorf("%w: work order is %s, not awaiting approval", ErrConflict, order.Status)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if scheduledDate != nil {
			if err := tx.Model(&model.WorkOrder{}).
				Where("id = ?", order.ID).
				Update("scheduled_date", scheduledDate).Error; err != nil {
				return err
			}
			order.ScheduledDate = scheduledDate
		}
		return workflow.Transition(tx, order, model.StatusPending, "approved", userID)
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Dispatch(order.ClientID, model.NotifyRequestApproved,
		"Work order approved",
		fmt.Sprintf("Work order %s (%s) was approved.", order.Reference, order.Title),
		map[string]interface{}{"work_order_id": order.ID})
	return order, nil
}

// Reject moves a client request from awaiting_approval to cancelled and
// notifies the client with the reason.
func (s *WorkOrderService) Reject(ctx context.Context, id, reason string) (*model.WorkOrder, error) {
	cause := "rejected"
	if reason != "" {
		cause = "rejected: " + reason
	}
	order, err := s.decide(ctx, id, model.StatusCancelled, cause)
	if err != nil {
		return nil, err
	}
	body := fmt.Sprintf("Work order %s (%s) was rejected.", order.Reference, order.Title)
	if reason != "" {
		body += " Reason: " + reason
	}
	s.notifications.Dispatch(order.ClientID, model.NotifyRequestRejected,
		"Work order rejected", body,
		map[string]interface{}{"work_order_id": order.ID})
	return order, nil
}

// decide applies a manager's approval decision on an awaiting_approval
// order.
func (s *WorkOrderService) decide(ctx context.Context, id string, to model.Status, reason string) (*model.WorkOrder, error) {
	userID := auth.UserID(ctx)
	if auth.RoleFromContext(ctx) != model.RoleManager {
		return nil, fmt.Errorf("%w: only managers may decide requests", ErrForbidden)
	}

	order, err := s.loadOrder(id)
	if err != nil {
		return nil, err
	}
	if order.Status != model.StatusAwaitingApproval {
		return nil, fmt.Errorf("%w: work order is %s, not awaiting approval", ErrConflict, order.Status)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return workflow.Transition(tx, order, to, reason, userID)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel moves any non-terminal order to cancelled.
func (s *WorkOrderService) Cancel(ctx context.Context, id, reason string) (*model.WorkOrder, error) {
	userID := auth.UserID(ctx)
	if auth.RoleFromContext(ctx) != model.RoleManager {
		return nil, fmt.Errorf("%w: only managers may cancel work orders", ErrForbidden)
	}

	order, err := s.loadOrder(id)
	if err != nil {
		return nil, err
	}
	if workflow.IsTerminal(order.Status) {
		return nil, fmt.Errorf("%w: work order is already %s", ErrConflict, order.Status)
	}

	cause := "cancelled"
	if reason != "" {
		cause = "cancelled: " + reason
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return workflow.Transition(tx, order, model.StatusCancelled, cause, userID)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Delete removes a work order and everything hanging off it. Completed
// orders are immutable history and cannot be deleted.
func (s *WorkOrderService) Delete(ctx context.Context, id string) error {
	if auth.RoleFromContext(ctx) != model.RoleManager {
		return fmt.Errorf("%w: only managers may delete work orders", ErrForbidden)
	}

	order, err := s.loadOrder(id)
	if err != nil {
		return err
	}
	if order.Status == model.StatusCompleted {
		return fmt.Errorf("%w: completed work orders cannot be deleted", ErrConflict)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&model.TimeEntry{}, &model.Assignment{}, &model.Attachment{}, &model.StatusHistory{},
		} {
			if err := tx.Where("work_order_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&model.WorkOrder{}).Error
	})
}

// AssignWorker assigns an approved employee to the order and notifies
// them.
func (s *WorkOrderService) AssignWorker(ctx context.Context, workOrderID, workerID string) error {
	userID := auth.UserID(ctx)
	if auth.RoleFromContext(ctx) != model.RoleManager {
		return fmt.Errorf("%w: only managers may assign workers", ErrForbidden)
	}

	order, err := s.loadOrder(workOrderID)
	if err != nil {
		return err
	}
	if workflow.IsTerminal(order.Status) {
		return fmt.Errorf("%w: work order is %s", ErrConflict, order.Status)
	}

	worker, err := s.users.FindByID(workerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %s", ErrNotFound, workerID)
		}
		return err
	}
	if worker.Role != model.RoleEmployee || !worker.Approved {
		return fmt.Errorf("%w: user %s is not an approved employee", ErrValidation, workerID)
	}

	exists, err := s.assignments.Exists(workOrderID, workerID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: already assigned", ErrConflict)
	}

	assignment := &model.Assignment{
		ID:          uuid.New().String(),
		WorkOrderID: workOrderID,
		UserID:      workerID,
		AssignedBy:  userID,
		AssignedAt:  time.Now(),
	}
	if err := s.assignments.Create(assignment); err != nil {
		return err
	}

	s.notifications.Dispatch(workerID, model.NotifyWorkerAssigned,
		"New assignment",
		fmt.Sprintf("You were assigned to work order %s (%s).", order.Reference, order.Title),
		map[string]interface{}{"work_order_id": order.ID})
	return nil
}

// UnassignWorker removes an assignment. A worker with an open session
// must close it first.
func (s *WorkOrderService) UnassignWorker(ctx context.Context, workOrderID, workerID string) error {
	if auth.RoleFromContext(ctx) != model.RoleManager {
		return fmt.Errorf("%w: only managers may unassign workers", ErrForbidden)
	}

	exists, err := s.assignments.Exists(workOrderID, workerID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: assignment", ErrNotFound)
	}

	if _, err := s.entries.FindOpenByWorkOrderAndUser(workOrderID, workerID); err == nil {
		return fmt.Errorf("%w: worker has an open session", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.assignments.Delete(workOrderID, workerID)
}

// History returns the order's status transitions, subject to the same
// visibility as Get.
func (s *WorkOrderService) History(ctx context.Context, id string) ([]*model.StatusHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.statusHistory.FindByWorkOrder(id)
}

func (s *WorkOrderService) loadOrder(id string) (*model.WorkOrder, error) {
	order, err := s.orders.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: work order %s", ErrNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

// notifyManagers fans a notification out to every approved manager.
func (s *WorkOrderService) notifyManagers(notifyType, title, body string, order *model.WorkOrder) {
	managers, err := s.users.FindApprovedManagers()
	if err != nil {
		s.logger.WithField("error", err).Error("failed to list managers for notification")
		return
	}
	for _, m := range managers {
		s.notifications.Dispatch(m.ID, notifyType, title, body,
			map[string]interface{}{"work_order_id": order.ID})
	}
}

// newReference builds a human-readable order reference, e.g.
// OS-20260828-3FA2B1.
func newReference(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("OS-%s-%s", now.Format("20060102"), suffix)
}
