package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
)

func TestClientCreateAwaitsApprovalAndNotifiesManagers(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager One", model.RoleManager)
	seedUser(t, db, "mgr2", "Manager Two", model.RoleManager)
	seedUser(t, db, "cli1", "Client One", model.RoleClient)

	svc := newWorkOrders(db, newNotifications(db))
	order, err := svc.Create(ctxAs("cli1", model.RoleClient), CreateWorkOrderInput{
		Title: "Broken AC unit",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusAwaitingApproval, order.Status)
	assert.Equal(t, "cli1", order.ClientID)
	assert.NotEmpty(t, order.Reference)

	var notified int64
	require.NoError(t, db.Model(&model.Notification{}).
		Where("type = ?", model.NotifyRequestSubmitted).
		Count(&notified).Error)
	assert.Equal(t, int64(2), notified)
}

func TestManagerCreateStartsPending(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager One", model.RoleManager)

	svc := newWorkOrders(db, newNotifications(db))
	order, err := svc.Create(ctxAs("mgr1", model.RoleManager), CreateWorkOrderInput{
		Title:    "Scheduled maintenance",
		ClientID: "cli1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, order.Status)

	// manager creation needs an explicit client
	_, err = svc.Create(ctxAs("mgr1", model.RoleManager), CreateWorkOrderInput{Title: "No client"})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestEmployeeCreateForbidden(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkOrders(db, newNotifications(db))

	_, err := svc.Create(ctxAs("emp1", model.RoleEmployee), CreateWorkOrderInput{Title: "Nope"})
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestApproveNotifiesClient(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager One", model.RoleManager)
	seedUser(t, db, "cli1", "Client One", model.RoleClient)
	seedOrder(t, db, "wo1", "cli1", model.StatusAwaitingApproval)

	svc := newWorkOrders(db, newNotifications(db))
	scheduled := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	order, err := svc.Approve(ctxAs("mgr1", model.RoleManager), "wo1", &scheduled)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, order.Status)

	var saved model.WorkOrder
	require.NoError(t, db.First(&saved, "id = ?", "wo1").Error)
	require.NotNil(t, saved.ScheduledDate)
	assert.Equal(t, scheduled.Unix(), saved.ScheduledDate.Unix())

	var n model.Notification
	require.NoError(t, db.Where("type = ?", model.NotifyRequestApproved).First(&n).Error)
	assert.Equal(t, "cli1", n.UserID)

	// second approval conflicts
	_, err = svc.Approve(ctxAs("mgr1", model.RoleManager), "wo1", nil)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestRejectCancelsAndCarriesReason(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager One", model.RoleManager)
	seedUser(t, db, "cli1", "Client One", model.RoleClient)
	seedOrder(t, db, "wo1", "cli1", model.StatusAwaitingApproval)

	svc := newWorkOrders(db, newNotifications(db))
	order, err := svc.Reject(ctxAs("mgr1", model.RoleManager), "wo1", "out of coverage area")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, order.Status)

	var n model.Notification
	require.NoError(t, db.Where("type = ?", model.NotifyRequestRejected).First(&n).Error)
	assert.Contains(t, n.Body, "out of coverage area")
}

func TestApproveRequiresManager(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, "wo1", "cli1", model.StatusAwaitingApproval)

	svc := newWorkOrders(db, newNotifications(db))
	_, err := svc.Approve(ctxAs("cli1", model.RoleClient), "wo1", nil)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestCancelTerminalConflicts(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager One", model.RoleManager)
	seedOrder(t, db, "wo1", "cli1", model.StatusCompleted)

	svc := newWorkOrders(db, newNotifications(db))
	_, err := svc.Cancel(ctxAs("mgr1", model.RoleManager), "wo1", "")
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestAssignWorker(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager One", model.RoleManager)
	seedUser(t, db, "emp1", "Worker One", model.RoleEmployee)
	seedUser(t, db, "cli1", "Client One", model.RoleClient)
	seedOrder(t, db, "wo1", "cli1", model.StatusPending)

	svc := newWorkOrders(db, newNotifications(db))
	mgr := ctxAs("mgr1", model.RoleManager)

	require.NoError(t, svc.AssignWorker(mgr, "wo1", "emp1"))

	var n model.Notification
	require.NoError(t, db.Where("type = ?", model.NotifyWorkerAssigned).First(&n).Error)
	assert.Equal(t, "emp1", n.UserID)

	// duplicate assignment conflicts
	err := svc.AssignWorker(mgr, "wo1", "emp1")
	assert.True(t, errors.Is(err, ErrConflict))

	// clients cannot be assigned as workers
	err = svc.AssignWorker(mgr, "wo1", "cli1")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestUnassignWorkerWithOpenSessionConflicts(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager One", model.RoleManager)
	seedUser(t, db, "emp1", "Worker One", model.RoleEmployee)
	seedOrder(t, db, "wo1", "cli1", model.StatusInProgress)
	seedAssignment(t, db, "wo1", "emp1")
	seedOpenEntry(t, db, "wo1", "emp1", time.Now())

	svc := newWorkOrders(db, newNotifications(db))
	err := svc.UnassignWorker(ctxAs("mgr1", model.RoleManager), "wo1", "emp1")
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestDeleteCompletedOrderConflicts(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager One", model.RoleManager)
	seedOrder(t, db, "wo1", "cli1", model.StatusCompleted)

	svc := newWorkOrders(db, newNotifications(db))
	err := svc.Delete(ctxAs("mgr1", model.RoleManager), "wo1")
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager One", model.RoleManager)
	seedOrder(t, db, "wo1", "cli1", model.StatusPending)
	seedAssignment(t, db, "wo1", "emp1")
	seedClosedEntry(t, db, "wo1", "emp1", time.Now().Add(-2*time.Hour), 1.0)

	svc := newWorkOrders(db, newNotifications(db))
	require.NoError(t, svc.Delete(ctxAs("mgr1", model.RoleManager), "wo1"))

	for _, m := range []interface{}{&model.WorkOrder{}, &model.TimeEntry{}, &model.Assignment{}} {
		var count int64
		require.NoError(t, db.Model(m).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	}
}

func TestGetAndListScoping(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "emp1", "Worker One", model.RoleEmployee)
	seedOrder(t, db, "wo1", "cli1", model.StatusPending)
	seedOrder(t, db, "wo2", "cli2", model.StatusPending)
	seedAssignment(t, db, "wo2", "emp1")

	svc := newWorkOrders(db, newNotifications(db))

	// clients only see their own orders; foreign ones read as 404
	_, err := svc.Get(ctxAs("cli1", model.RoleClient), "wo2")
	assert.True(t, errors.Is(err, ErrNotFound))

	orders, total, err := svc.List(ctxAs("cli1", model.RoleClient), nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, "wo1", orders[0].ID)

	// employees only see their assignments
	orders, total, err = svc.List(ctxAs("emp1", model.RoleEmployee), nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, "wo2", orders[0].ID)

	// managers see everything
	_, total, err = svc.List(ctxAs("mgr1", model.RoleManager), nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestUpdateStatusOverrideRecordsHistory(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "mgr1", "Manager One", model.RoleManager)
	seedOrder(t, db, "wo1", "cli1", model.StatusCompleted)

	svc := newWorkOrders(db, newNotifications(db))
	status := model.StatusPending
	order, err := svc.Update(ctxAs("mgr1", model.RoleManager), "wo1", UpdateWorkOrderInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, order.Status)

	var history model.StatusHistory
	require.NoError(t, db.Where("work_order_id = ? AND reason = ?", "wo1", "manager edit").
		First(&history).Error)
	assert.Equal(t, model.StatusCompleted, history.FromStatus)
	assert.Equal(t, model.StatusPending, history.ToStatus)
}
