package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/repository"
)

// recordingMailer captures sent messages.
type recordingMailer struct {
	to       []string
	subjects []string
}

func (m *recordingMailer) Send(to, subject, _ string) error {
	m.to = append(m.to, to)
	m.subjects = append(m.subjects, subject)
	return nil
}

func TestDispatchPersistsAndMarksSent(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "cli1", "Client One", model.RoleClient)

	mail := &recordingMailer{}
	svc := NewNotificationService(repository.NewNotificationRepository(db),
		repository.NewUserRepository(db), mail, nil, newTestLogger(), 0)

	svc.Dispatch("cli1", model.NotifyRequestApproved, "Request approved",
		"Your request was approved", map[string]interface{}{"work_order_id": "wo1"})

	var n model.Notification
	require.NoError(t, db.Where("user_id = ?", "cli1").First(&n).Error)
	assert.Equal(t, model.NotificationSent, n.Status)
	assert.Equal(t, model.NotifyRequestApproved, n.Type)
	assert.Zero(t, n.RetryCount)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(n.Data, &data))
	assert.Equal(t, "wo1", data["work_order_id"])

	require.Len(t, mail.to, 1)
	assert.Equal(t, "cli1@example.com", mail.to[0])
	assert.Equal(t, "Request approved", mail.subjects[0])
}

func TestDispatchEmailFailureMarksFailed(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "cli1", "Client One", model.RoleClient)

	svc := NewNotificationService(repository.NewNotificationRepository(db),
		repository.NewUserRepository(db), failingMailer{}, nil, newTestLogger(), 0)
	svc.retryDelay = 0

	svc.Dispatch("cli1", model.NotifyRequestRejected, "Request rejected", "reason: out of scope", nil)

	var n model.Notification
	require.NoError(t, db.Where("user_id = ?", "cli1").First(&n).Error)
	assert.Equal(t, model.NotificationFailed, n.Status)
	assert.Equal(t, 2, n.RetryCount)
}

func TestDispatchWithoutEmailAddressStillSent(t *testing.T) {
	db := newTestDB(t)
	// no user row, so the address lookup fails

	mail := &recordingMailer{}
	svc := NewNotificationService(repository.NewNotificationRepository(db),
		repository.NewUserRepository(db), mail, nil, newTestLogger(), 0)

	svc.Dispatch("ghost", model.NotifyWorkerAssigned, "Assigned", "", nil)

	var n model.Notification
	require.NoError(t, db.Where("user_id = ?", "ghost").First(&n).Error)
	assert.Equal(t, model.NotificationSent, n.Status)
	assert.Empty(t, mail.to)
}

func TestRedeliverPendingProcessesOutbox(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "cli1", "Client One", model.RoleClient)

	now := time.Now()
	require.NoError(t, db.Create(&model.Notification{
		ID: uuid.New().String(), UserID: "cli1", Type: model.NotifyRequestSubmitted,
		Title: "New request", Status: model.NotificationPending,
		CreatedAt: now, UpdatedAt: now,
	}).Error)

	mail := &recordingMailer{}
	svc := NewNotificationService(repository.NewNotificationRepository(db),
		repository.NewUserRepository(db), mail, nil, newTestLogger(), 0)

	svc.RedeliverPending()

	var n model.Notification
	require.NoError(t, db.Where("user_id = ?", "cli1").First(&n).Error)
	assert.Equal(t, model.NotificationSent, n.Status)
	require.Len(t, mail.to, 1)
}

func TestListForUserNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newNotifications(db)

	base := time.Now().Add(-time.Hour)
	for i, title := range []string{"first", "second", "third"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(&model.Notification{
			ID: uuid.New().String(), UserID: "u1", Type: model.NotifyWorkerAssigned,
			Title: title, Status: model.NotificationSent,
			CreatedAt: ts, UpdatedAt: ts,
		}).Error)
	}

	list, err := svc.ListForUser("u1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "second", list[1].Title)

	other, err := svc.ListForUser("u2", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	svc := newNotifications(db)

	now := time.Now()
	id := uuid.New().String()
	require.NoError(t, db.Create(&model.Notification{
		ID: id, UserID: "u1", Type: model.NotifyWorkerAssigned,
		Title: "Assigned", Status: model.NotificationSent,
		CreatedAt: now, UpdatedAt: now,
	}).Error)

	// another user cannot mark it
	assert.ErrorIs(t, svc.MarkRead(id, "u2"), ErrNotFound)

	require.NoError(t, svc.MarkRead(id, "u1"))
	var n model.Notification
	require.NoError(t, db.First(&n, "id = ?", id).Error)
	assert.True(t, n.Read)

	assert.ErrorIs(t, svc.MarkRead("missing", "u1"), ErrNotFound)
}
