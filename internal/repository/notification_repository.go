package repository

import (
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"gorm.io/gorm"
)

// NotificationRepository is the notification outbox store interface.
type NotificationRepository interface {
	Save(notification *model.Notification) error
	FindByID(id string) (*model.Notification, error)
	FindByUser(userID string, limit int) ([]*model.Notification, error)
	FindPending(limit int) ([]*model.Notification, error)
	MarkRead(id, userID string) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Save persists a notification row.
func (r *notificationRepository) Save(notification *model.Notification) error {
	return r.db.Save(notification).Error
}

// FindByID finds a notification by ID.
func (r *notificationRepository) FindByID(id string) (*model.Notification, error) {
	var notification model.Notification
	if err := r.db.Where("id = ?", id).First(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// FindByUser lists a user's notifications, newest first.
func (r *notificationRepository) FindByUser(userID string, limit int) ([]*model.Notification, error) {
	if limit < 1 {
		limit = 50
	}
	var notifications []*model.Notification
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// FindPending lists undelivered notifications, oldest first.
func (r *notificationRepository) FindPending(limit int) ([]*model.Notification, error) {
	if limit < 1 {
		limit = 100
	}
	var notifications []*model.Notification
	err := r.db.
		Where("status = ?", model.NotificationPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// MarkRead marks a notification read. The user filter keeps one user
// from acknowledging another's notifications.
func (r *notificationRepository) MarkRead(id, userID string) error {
	result := r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
