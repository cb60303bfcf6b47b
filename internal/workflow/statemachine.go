package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"gorm.io/gorm"
)

// transitions is the fixed status graph of a work order.
//
// awaiting_approval -> pending    (manager approves a client request)
// awaiting_approval -> cancelled  (manager rejects)
// pending/approved  -> in_progress (a worker starts a session)
// in_progress       -> pending    (last open session closes)
// pending/approved/in_progress -> completed (explicit completion)
// anything not terminal -> cancelled (manager edit)
//
// completed and cancelled are terminal for the session-driven engine;
// only a manager's direct edit may move an order out of them afterwards.
var transitions = map[model.Status][]model.Status{
	model.StatusAwaitingApproval: {model.StatusPending, model.StatusCancelled},
	model.StatusPending:          {model.StatusInProgress, model.StatusCompleted, model.StatusCancelled},
	model.StatusApproved:         {model.StatusInProgress, model.StatusCompleted, model.StatusCancelled},
	model.StatusInProgress:       {model.StatusPending, model.StatusCompleted, model.StatusCancelled},
	model.StatusCompleted:        {},
	model.StatusCancelled:        {},
}

// CanTransition reports whether the status graph allows from -> to.
func CanTransition(from, to model.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether status admits no further engine transitions.
func IsTerminal(status model.Status) bool {
	return len(transitions[status]) == 0
}

// Transition moves the work order to the target status and records a
// history row, all against the given db handle (pass a transaction to
// make the move atomic with surrounding writes). The order's UpdatedAt
// is refreshed; the caller is responsible for persisting other fields.
func Transition(db *gorm.DB, order *model.WorkOrder, to model.Status, reason, operator string) error {
	from := order.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid status transition: %s -> %s", from, to)
	}

	now := time.Now()
	if err := db.Model(&model.WorkOrder{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{"status": to, "updated_at": now}).Error; err != nil {
		return fmt.Errorf("failed to update work order status: %w", err)
	}

	history := &model.StatusHistory{
		ID:          uuid.New().String(),
		WorkOrderID: order.ID,
		FromStatus:  from,
		ToStatus:    to,
		Reason:      reason,
		Operator:    operator,
		CreatedAt:   now,
	}
	if err := db.Create(history).Error; err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}

	order.Status = to
	order.UpdatedAt = now
	return nil
}

// ForceSet sets the status without consulting the graph and records the
// override in history. Reserved for manager direct edits.
func ForceSet(db *gorm.DB, order *model.WorkOrder, to model.Status, reason, operator string) error {
	if !to.Valid() {
		return fmt.Errorf("unknown status: %s", to)
	}
	from := order.Status
	now := time.Now()
	if err := db.Model(&model.WorkOrder{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{"status": to, "updated_at": now}).Error; err != nil {
		return fmt.Errorf("failed to update work order status: %w", err)
	}
	history := &model.StatusHistory{
		ID:          uuid.New().String(),
		WorkOrderID: order.ID,
		FromStatus:  from,
		ToStatus:    to,
		Reason:      reason,
		Operator:    operator,
		CreatedAt:   now,
	}
	if err := db.Create(history).Error; err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}
	order.Status = to
	order.UpdatedAt = now
	return nil
}
