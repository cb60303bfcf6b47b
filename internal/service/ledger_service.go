package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/auth"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/metrics"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/repository"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/workflow"
)

// maxEntryHours bounds a manager's duration edit. A single session
// longer than a day is a data entry mistake.
const maxEntryHours = 24.0

// LedgerService is the time entry ledger: session start, close, pause,
// and entry corrections. Every mutation that changes durations
// recomputes the order's total_hours inside the same transaction, and
// the session-driven status moves (pending <-> in_progress) ride along
// in that transaction too.
type LedgerService struct {
	db          *gorm.DB
	orders      repository.WorkOrderRepository
	entries     repository.TimeEntryRepository
	assignments repository.AssignmentRepository
	logger      *logrus.Logger
}

// NewLedgerService creates the ledger service.
func NewLedgerService(
	db *gorm.DB,
	orders repository.WorkOrderRepository,
	entries repository.TimeEntryRepository,
	assignments repository.AssignmentRepository,
	logger *logrus.Logger,
) *LedgerService {
	return &LedgerService{
		db:          db,
		orders:      orders,
		entries:     entries,
		assignments: assignments,
		logger:      logger,
	}
}

// EditEntryInput carries a correction of a closed entry. Nil fields
// are left unchanged.
type EditEntryInput struct {
	Hours *float64
	Note  *string
}

// StartSession opens a time entry for the caller on the work order.
// A worker holds at most one open entry per order; the order moves to
// in_progress if it was not already there.
func (s *LedgerService) StartSession(ctx context.Context, workOrderID, note string) (*model.TimeEntry, error) {
	userID := auth.UserID(ctx)
	role := auth.RoleFromContext(ctx)

	order, err := s.loadOrder(workOrderID)
	if err != nil {
		return nil, err
	}
	if err := s.requireWorkerAccess(order, userID, role); err != nil {
		return nil, err
	}

	switch order.Status {
	case model.StatusPending, model.StatusApproved, model.StatusInProgress:
	case model.StatusAwaitingApproval:
		return nil, fmt.Errorf("%w: work order is awaiting approval", ErrConflict)
	default:
		return nil, fmt.Errorf("%w: work order is %s", ErrConflict, order.Status)
	}

	now := time.Now()
	entry := &model.TimeEntry{
		ID:          uuid.New().String(),
		WorkOrderID: workOrderID,
		UserID:      userID,
		StartTime:   now,
		Note:        note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// the partial unique index backs this check up under races
		var open int64
		if err := tx.Model(&model.TimeEntry{}).
			Where("work_order_id = ? AND user_id = ? AND end_time IS NULL", workOrderID, userID).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: an open session already exists", ErrConflict)
		}

		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		if order.Status != model.StatusInProgress {
			return workflow.Transition(tx, order, model.StatusInProgress, "session started", userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSessionStarted()
	s.logger.WithFields(logrus.Fields{
		"work_order_id": workOrderID,
		"user_id":       userID,
		"entry_id":      entry.ID,
	}).Info("session started")

	return entry, nil
}

// CloseSession closes the caller's open entry on the work order. When
// no other open entries remain the order returns to pending.
func (s *LedgerService) CloseSession(ctx context.Context, workOrderID, note string) (*model.TimeEntry, error) {
	entry, err := s.closeOpen(ctx, workOrderID, note, nil)
	if err != nil {
		return nil, err
	}
	metrics.RecordSessionClosed("close")
	return entry, nil
}

// PauseSession closes the caller's open entry recording the pause
// reason. Pausing an already paused session with the same reason is a
// no-op so retried requests do not fail.
func (s *LedgerService) PauseSession(ctx context.Context, workOrderID string, reason model.PauseReason, note string) (*model.TimeEntry, error) {
	if !reason.Valid() {
		return nil, fmt.Errorf("%w: unknown pause reason %q", ErrValidation, reason)
	}

	entry, err := s.closeOpen(ctx, workOrderID, note, &reason)
	if errors.Is(err, ErrNotFound) {
		// idempotent retry: accept if the last entry already carries
		// this pause reason
		if last := s.lastEntryOfUser(workOrderID, auth.UserID(ctx)); last != nil &&
			!last.Open() && last.PauseReason != nil && *last.PauseReason == reason {
			return last, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	metrics.RecordSessionClosed("pause")
	return entry, nil
}

// closeOpen closes the caller's open entry at the current time, sets
// the duration, recomputes total_hours and moves the order back to
// pending when it was the last open entry.
func (s *LedgerService) closeOpen(ctx context.Context, workOrderID, note string, reason *model.PauseReason) (*model.TimeEntry, error) {
	userID := auth.UserID(ctx)

	order, err := s.loadOrder(workOrderID)
	if err != nil {
		return nil, err
	}

	entry, err := s.entries.FindOpenByWorkOrderAndUser(workOrderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no open session", ErrNotFound)
		}
		return nil, err
	}

	now := time.Now()
	duration := now.Sub(entry.StartTime).Hours()
	if duration < 0 {
		duration = 0
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		entry.EndTime = &now
		entry.DurationHours = &duration
		entry.PauseReason = reason
		if note != "" {
			entry.Note = note
		}
		entry.UpdatedAt = now
		if err := tx.Save(entry).Error; err != nil {
			return err
		}

		if err := recomputeTotalHours(tx, workOrderID); err != nil {
			return err
		}

		var stillOpen int64
		if err := tx.Model(&model.TimeEntry{}).
			Where("work_order_id = ? AND end_time IS NULL", workOrderID).
			Count(&stillOpen).Error; err != nil {
			return err
		}
		if stillOpen == 0 && order.Status == model.StatusInProgress {
			cause := "last session closed"
			if reason != nil {
				cause = fmt.Sprintf("session paused: %s", *reason)
			}
			return workflow.Transition(tx, order, model.StatusPending, cause, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"work_order_id": workOrderID,
		"user_id":       userID,
		"entry_id":      entry.ID,
		"hours":         duration,
	}).Info("session closed")

	return entry, nil
}

// EditClosedEntry corrects a closed entry. Workers may correct their
// own entries; managers may correct anyone's. A new hours value moves
// the end time; the start time stays put.
func (s *LedgerService) EditClosedEntry(ctx context.Context, entryID string, input EditEntryInput) (*model.TimeEntry, error) {
	userID := auth.UserID(ctx)
	role := auth.RoleFromContext(ctx)

	entry, err := s.entries.FindByID(entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: time entry %s", ErrNotFound, entryID)
		}
		return nil, err
	}
	if role != model.RoleManager && entry.UserID != userID {
		return nil, fmt.Errorf("%w: not your time entry", ErrForbidden)
	}
	if entry.Open() {
		return nil, fmt.Errorf("%w: cannot edit an open session", ErrConflict)
	}

	if input.Hours != nil {
		hours := *input.Hours
		if hours <= 0 || hours > maxEntryHours {
			return nil, fmt.Errorf("%w: hours must be in (0, %g]", ErrValidation, maxEntryHours)
		}
		end := entry.StartTime.Add(time.Duration(hours * float64(time.Hour)))
		entry.EndTime = &end
		entry.DurationHours = &hours
	}
	if input.Note != nil {
		entry.Note = *input.Note
	}
	entry.UpdatedAt = time.Now()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(entry).Error; err != nil {
			return err
		}
		return recomputeTotalHours(tx, entry.WorkOrderID)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry removes a closed entry (owner or manager) and recomputes
// the order's hours. Open sessions are ended, not deleted.
func (s *LedgerService) DeleteEntry(ctx context.Context, entryID string) error {
	userID := auth.UserID(ctx)
	role := auth.RoleFromContext(ctx)

	entry, err := s.entries.FindByID(entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: time entry %s", ErrNotFound, entryID)
		}
		return err
	}
	if role != model.RoleManager && entry.UserID != userID {
		return fmt.Errorf("%w: not your time entry", ErrForbidden)
	}
	if entry.Open() {
		return fmt.Errorf("%w: cannot delete an open session", ErrConflict)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", entry.ID).Delete(&model.TimeEntry{}).Error; err != nil {
			return err
		}
		return recomputeTotalHours(tx, entry.WorkOrderID)
	})
}

// ListEntries returns the order's entries and their summed hours for
// callers allowed to see them.
func (s *LedgerService) ListEntries(ctx context.Context, workOrderID string) ([]*model.TimeEntry, float64, error) {
	userID := auth.UserID(ctx)
	role := auth.RoleFromContext(ctx)

	order, err := s.loadOrder(workOrderID)
	if err != nil {
		return nil, 0, err
	}

	switch role {
	case model.RoleManager:
	case model.RoleClient:
		if order.ClientID != userID {
			return nil, 0, fmt.Errorf("%w: not your work order", ErrForbidden)
		}
	case model.RoleEmployee:
		assigned, err := s.assignments.Exists(workOrderID, userID)
		if err != nil {
			return nil, 0, err
		}
		if !assigned {
			return nil, 0, fmt.Errorf("%w: not assigned to this work order", ErrForbidden)
		}
	default:
		return nil, 0, ErrForbidden
	}

	entries, err := s.entries.FindByWorkOrder(workOrderID)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.entries.SumDurations(workOrderID)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// loadOrder fetches the work order, mapping the missing row onto the
// service sentinel.
func (s *LedgerService) loadOrder(workOrderID string) (*model.WorkOrder, error) {
	order, err := s.orders.FindByID(workOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: work order %s", ErrNotFound, workOrderID)
		}
		return nil, err
	}
	return order, nil
}

// requireWorkerAccess allows managers always and employees when
// assigned; clients never touch the ledger.
func (s *LedgerService) requireWorkerAccess(order *model.WorkOrder, userID string, role model.Role) error {
	switch role {
	case model.RoleManager:
		return nil
	case model.RoleEmployee:
		assigned, err := s.assignments.Exists(order.ID, userID)
		if err != nil {
			return err
		}
		if !assigned {
			return fmt.Errorf("%w: not assigned to this work order", ErrForbidden)
		}
		return nil
	default:
		return fmt.Errorf("%w: role %s cannot track time", ErrForbidden, role)
	}
}

// lastEntryOfUser returns the user's newest entry on the order, nil
// when there is none.
func (s *LedgerService) lastEntryOfUser(workOrderID, userID string) *model.TimeEntry {
	var entry model.TimeEntry
	err := s.db.
		Where("work_order_id = ? AND user_id = ?", workOrderID, userID).
		Order("start_time DESC").
		First(&entry).Error
	if err != nil {
		return nil
	}
	return &entry
}

// recomputeTotalHours re-sums duration_hours over the order's entries
// and writes the denormalized total. Open entries count as zero.
func recomputeTotalHours(tx *gorm.DB, workOrderID string) error {
	var total float64
	if err := tx.Model(&model.TimeEntry{}).
		Where("work_order_id = ?", workOrderID).
		Select("COALESCE(SUM(duration_hours), 0)").
		Scan(&total).Error; err != nil {
		return err
	}
	return tx.Model(&model.WorkOrder{}).
		Where("id = ?", workOrderID).
		Updates(map[string]interface{}{"total_hours": total, "updated_at": time.Now()}).Error
}
