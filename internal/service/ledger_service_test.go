package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
)

func TestStartSessionMovesOrderToInProgress(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "emp1", "Worker One", model.RoleEmployee)
	seedOrder(t, db, "wo1", "cli1", model.StatusPending)
	seedAssignment(t, db, "wo1", "emp1")

	ledger := newLedger(db)
	entry, err := ledger.StartSession(ctxAs("emp1", model.RoleEmployee), "wo1", "starting")
	require.NoError(t, err)

	assert.True(t, entry.Open())
	assert.Equal(t, "wo1", entry.WorkOrderID)
	assert.Equal(t, "emp1", entry.UserID)
	assert.Equal(t, model.StatusInProgress, orderStatus(t, db, "wo1"))

	// transition recorded in history
	var count int64
	require.NoError(t, db.Model(&model.StatusHistory{}).
		Where("work_order_id = ? AND to_status = ?", "wo1", model.StatusInProgress).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestStartSessionSecondOpenConflicts(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "emp1", "Worker One", model.RoleEmployee)
	seedOrder(t, db, "wo1", "cli1", model.StatusPending)
	seedAssignment(t, db, "wo1", "emp1")

	ledger := newLedger(db)
	ctx := ctxAs("emp1", model.RoleEmployee)

	_, err := ledger.StartSession(ctx, "wo1", "")
	require.NoError(t, err)

	_, err = ledger.StartSession(ctx, "wo1", "")
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestStartSessionUnassignedForbidden(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "emp2", "Worker Two", model.RoleEmployee)
	seedOrder(t, db, "wo1", "cli1", model.StatusPending)

	ledger := newLedger(db)
	_, err := ledger.StartSession(ctxAs("emp2", model.RoleEmployee), "wo1", "")
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestStartSessionRejectedStates(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "emp1", "Worker One", model.RoleEmployee)
	ledger := newLedger(db)
	ctx := ctxAs("emp1", model.RoleEmployee)

	for i, status := range []model.Status{model.StatusAwaitingApproval, model.StatusCompleted, model.StatusCancelled} {
		id := "wo-state-" + string(rune('a'+i))
		seedOrder(t, db, id, "cli1", status)
		seedAssignment(t, db, id, "emp1")

		_, err := ledger.StartSession(ctx, id, "")
		assert.True(t, errors.Is(err, ErrConflict), "status %s should reject session start", status)
	}
}

func TestCloseSessionComputesDurationAndTotal(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "emp1", "Worker One", model.RoleEmployee)
	seedOrder(t, db, "wo1", "cli1", model.StatusInProgress)
	seedAssignment(t, db, "wo1", "emp1")
	seedOpenEntry(t, db, "wo1", "emp1", time.Now().Add(-2*time.Hour))

	ledger := newLedger(db)
	entry, err := ledger.CloseSession(ctxAs("emp1", model.RoleEmployee), "wo1", "done for today")
	require.NoError(t, err)

	require.NotNil(t, entry.EndTime)
	require.NotNil(t, entry.DurationHours)
	assert.InDelta(t, 2.0, *entry.DurationHours, 0.01)
	assert.Equal(t, "done for today", entry.Note)
	assert.InDelta(t, 2.0, orderTotalHours(t, db, "wo1"), 0.01)
	assert.Equal(t, model.StatusPending, orderStatus(t, db, "wo1"))
}

func TestCloseSessionWithoutOpenEntry(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "emp1", "Worker One", model.RoleEmployee)
	seedOrder(t, db, "wo1", "cli1", model.StatusInProgress)
	seedAssignment(t, db, "wo1", "emp1")

	ledger := newLedger(db)
	_, err := ledger.CloseSession(ctxAs("emp1", model.RoleEmployee), "wo1", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTwoWorkersOverlapping(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "emp1", "Worker One", model.RoleEmployee)
	seedUser(t, db, "emp2", "Worker Two", model.RoleEmployee)
	seedOrder(t, db, "wo1", "cli1", model.StatusPending)
	seedAssignment(t, db, "wo1", "emp1")
	seedAssignment(t, db, "wo1", "emp2")

	ledger := newLedger(db)
	ctx1 := ctxAs("emp1", model.RoleEmployee)
	ctx2 := ctxAs("emp2", model.RoleEmployee)

	_, err := ledger.StartSession(ctx1, "wo1", "")
	require.NoError(t, err)
	_, err = ledger.StartSession(ctx2, "wo1", "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, orderStatus(t, db, "wo1"))

	// first close leaves the other session open, order stays in progress
	_, err = ledger.CloseSession(ctx1, "wo1", "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, orderStatus(t, db, "wo1"))

	// last close returns the order to pending
	_, err = ledger.CloseSession(ctx2, "wo1", "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, orderStatus(t, db, "wo1"))
}

func TestPauseSessionRecordsReason(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "emp1", "Worker One", model.RoleEmployee)
	seedOrder(t, db, "wo1", "cli1", model.StatusInProgress)
	seedAssignment(t, db, "wo1", "emp1")
	seedOpenEntry(t, db, "wo1", "emp1", time.Now().Add(-30*time.Minute))

	ledger := newLedger(db)
	ctx := ctxAs("emp1", model.RoleEmployee)

	entry, err := ledger.PauseSession(ctx, "wo1", model.PauseFaltaMaterial, "waiting on parts")
	require.NoError(t, err)
	require.NotNil(t, entry.PauseReason)
	assert.Equal(t, model.PauseFaltaMaterial, *entry.PauseReason)
	assert.False(t, entry.Open())
	assert.Equal(t, model.StatusPending, orderStatus(t, db, "wo1"))

	// retrying the same pause is a no-op, not an error
	again, err := ledger.PauseSession(ctx, "wo1", model.PauseFaltaMaterial, "")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, again.ID)
}

func TestPauseSessionUnknownReason(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)

	_, err := ledger.PauseSession(ctxAs("emp1", model.RoleEmployee), "wo1", model.PauseReason("lunch"), "")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestEditClosedEntry(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager", model.RoleManager)
	seedOrder(t, db, "wo1", "cli1", model.StatusPending)
	start := time.Now().Add(-5 * time.Hour)
	entry := seedClosedEntry(t, db, "wo1", "emp1", start, 2.0)

	ledger := newLedger(db)
	hours := 3.5
	edited, err := ledger.EditClosedEntry(ctxAs("mgr1", model.RoleManager), entry.ID, EditEntryInput{Hours: &hours})
	require.NoError(t, err)

	require.NotNil(t, edited.DurationHours)
	assert.Equal(t, 3.5, *edited.DurationHours)
	assert.Equal(t, start.Add(3*time.Hour+30*time.Minute).Unix(), edited.EndTime.Unix())
	assert.InDelta(t, 3.5, orderTotalHours(t, db, "wo1"), 0.01)
}

func TestEditEntryGuards(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager", model.RoleManager)
	seedOrder(t, db, "wo1", "cli1", model.StatusInProgress)
	closed := seedClosedEntry(t, db, "wo1", "emp1", time.Now().Add(-3*time.Hour), 1.0)
	open := seedOpenEntry(t, db, "wo1", "emp1", time.Now())

	ledger := newLedger(db)
	mgr := ctxAs("mgr1", model.RoleManager)
	hours := 1.0

	// only the owner or a manager may edit
	_, err := ledger.EditClosedEntry(ctxAs("emp2", model.RoleEmployee), closed.ID, EditEntryInput{Hours: &hours})
	assert.True(t, errors.Is(err, ErrForbidden))

	// open entries cannot be edited
	_, err = ledger.EditClosedEntry(mgr, open.ID, EditEntryInput{Hours: &hours})
	assert.True(t, errors.Is(err, ErrConflict))

	// hours bounds
	for _, bad := range []float64{0, -1, 25} {
		h := bad
		_, err = ledger.EditClosedEntry(mgr, closed.ID, EditEntryInput{Hours: &h})
		assert.True(t, errors.Is(err, ErrValidation), "hours %v should be rejected", bad)
	}
}

func TestDeleteEntryRecomputesTotal(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager", model.RoleManager)
	seedOrder(t, db, "wo1", "cli1", model.StatusPending)
	keep := seedClosedEntry(t, db, "wo1", "emp1", time.Now().Add(-6*time.Hour), 2.0)
	drop := seedClosedEntry(t, db, "wo1", "emp2", time.Now().Add(-4*time.Hour), 1.5)
	_ = keep

	ledger := newLedger(db)
	require.NoError(t, ledger.DeleteEntry(ctxAs("mgr1", model.RoleManager), drop.ID))

	assert.InDelta(t, 2.0, orderTotalHours(t, db, "wo1"), 0.01)

	var count int64
	require.NoError(t, db.Model(&model.TimeEntry{}).Where("id = ?", drop.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestOwnerEditsAndDeletesOwnEntry(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, "wo1", "cli1", model.StatusPending)
	entry := seedClosedEntry(t, db, "wo1", "emp1", time.Now().Add(-4*time.Hour), 2.0)

	ledger := newLedger(db)
	owner := ctxAs("emp1", model.RoleEmployee)

	hours := 1.5
	edited, err := ledger.EditClosedEntry(owner, entry.ID, EditEntryInput{Hours: &hours})
	require.NoError(t, err)
	assert.Equal(t, 1.5, *edited.DurationHours)

	require.NoError(t, ledger.DeleteEntry(owner, entry.ID))
	assert.Zero(t, orderTotalHours(t, db, "wo1"))
}

func TestDeleteEntryGuards(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager", model.RoleManager)
	seedOrder(t, db, "wo1", "cli1", model.StatusInProgress)
	open := seedOpenEntry(t, db, "wo1", "emp1", time.Now())
	closed := seedClosedEntry(t, db, "wo1", "emp2", time.Now().Add(-2*time.Hour), 1.0)

	ledger := newLedger(db)

	// open sessions are ended, not deleted
	err := ledger.DeleteEntry(ctxAs("mgr1", model.RoleManager), open.ID)
	assert.True(t, errors.Is(err, ErrConflict))

	// only the owner or a manager may delete
	err = ledger.DeleteEntry(ctxAs("emp1", model.RoleEmployee), closed.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	err = ledger.DeleteEntry(ctxAs("mgr1", model.RoleManager), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListEntriesScoping(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "emp1", "Worker One", model.RoleEmployee)
	seedOrder(t, db, "wo1", "cli1", model.StatusPending)
	seedAssignment(t, db, "wo1", "emp1")
	seedClosedEntry(t, db, "wo1", "emp1", time.Now().Add(-2*time.Hour), 1.0)

	ledger := newLedger(db)

	entries, total, err := ledger.ListEntries(ctxAs("cli1", model.RoleClient), "wo1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.InDelta(t, 1.0, total, 0.001)

	_, _, err = ledger.ListEntries(ctxAs("cli2", model.RoleClient), "wo1")
	assert.True(t, errors.Is(err, ErrForbidden))

	_, _, err = ledger.ListEntries(ctxAs("emp2", model.RoleEmployee), "wo1")
	assert.True(t, errors.Is(err, ErrForbidden))
}
