package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/auth"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/database"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func ctxAs(userID string, role model.Role) context.Context {
	return auth.WithUser(context.Background(), userID, role)
}

func seedUser(t *testing.T, db *gorm.DB, id, name string, role model.Role) {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.Create(&model.UserProfile{
		ID:        id,
		Name:      name,
		Email:     id + "@example.com",
		Role:      role,
		Approved:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

func seedOrder(t *testing.T, db *gorm.DB, id, clientID string, status model.Status) *model.WorkOrder {
	t.Helper()
	now := time.Now()
	order := &model.WorkOrder{
		ID:        id,
		Reference: "OS-TEST-" + id,
		Title:     "Fix the thing",
		Status:    status,
		Priority:  model.PriorityMedium,
		ClientID:  clientID,
		CreatedBy: clientID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func seedAssignment(t *testing.T, db *gorm.DB, workOrderID, userID string) {
	t.Helper()
	require.NoError(t, db.Create(&model.Assignment{
		ID:          uuid.New().String(),
		WorkOrderID: workOrderID,
		UserID:      userID,
		AssignedBy:  "mgr",
		AssignedAt:  time.Now(),
	}).Error)
}

func seedClosedEntry(t *testing.T, db *gorm.DB, workOrderID, userID string, start time.Time, hours float64) *model.TimeEntry {
	t.Helper()
	end := start.Add(time.Duration(hours * float64(time.Hour)))
	entry := &model.TimeEntry{
		ID:            uuid.New().String(),
		WorkOrderID:   workOrderID,
		UserID:        userID,
		StartTime:     start,
		EndTime:       &end,
		DurationHours: &hours,
		CreatedAt:     start,
		UpdatedAt:     end,
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func seedOpenEntry(t *testing.T, db *gorm.DB, workOrderID, userID string, start time.Time) *model.TimeEntry {
	t.Helper()
	entry := &model.TimeEntry{
		ID:          uuid.New().String(),
		WorkOrderID: workOrderID,
		UserID:      userID,
		StartTime:   start,
		CreatedAt:   start,
		UpdatedAt:   start,
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func newLedger(db *gorm.DB) *LedgerService {
	return NewLedgerService(
		db,
		repository.NewWorkOrderRepository(db),
		repository.NewTimeEntryRepository(db),
		repository.NewAssignmentRepository(db),
		newTestLogger(),
	)
}

// newNotifications returns a synchronous notification service with no
// mailer and no hub.
func newNotifications(db *gorm.DB) *NotificationService {
	return NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		nil, nil, newTestLogger(), 0,
	)
}

func newWorkOrders(db *gorm.DB, notifications *NotificationService) *WorkOrderService {
	return NewWorkOrderService(
		db,
		repository.NewWorkOrderRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewTimeEntryRepository(db),
		repository.NewUserRepository(db),
		repository.NewStatusHistoryRepository(db),
		notifications,
		newTestLogger(),
	)
}

func orderStatus(t *testing.T, db *gorm.DB, id string) model.Status {
	t.Helper()
	var order model.WorkOrder
	require.NoError(t, db.Where("id = ?", id).First(&order).Error)
	return order.Status
}

func orderTotalHours(t *testing.T, db *gorm.DB, id string) float64 {
	t.Helper()
	var order model.WorkOrder
	require.NoError(t, db.Where("id = ?", id).First(&order).Error)
	return order.TotalHours
}
