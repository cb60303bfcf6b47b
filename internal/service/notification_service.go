package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/mailer"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/metrics"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/repository"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/websocket"
)

const (
	notifyQueueSize  = 256
	notifyMaxRetries = 3
)

// NotificationService persists notifications and delivers them over
// WebSocket and email. Every notification is written to the outbox row
// first; delivery failures mark the row failed but never propagate to
// the workflow that emitted the event.
type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	mail     mailer.Mailer  // nil disables email delivery
	hub      *websocket.Hub // nil disables push delivery
	logger   *logrus.Logger

	workers    int
	retryDelay time.Duration
	queue      chan *model.Notification
	wg         sync.WaitGroup
	stop       chan struct{}
}

// NewNotificationService creates the notification service. With
// workers == 0 dispatch processes synchronously, which is what the
// tests use.
func NewNotificationService(
	repo repository.NotificationRepository,
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	hub *websocket.Hub,
	logger *logrus.Logger,
	workers int,
) *NotificationService {
	return &NotificationService{
		repo:       repo,
		userRepo:   userRepo,
		mail:       mail,
		hub:        hub,
		logger:     logger,
		workers:    workers,
		retryDelay: time.Second,
		queue:      make(chan *model.Notification, notifyQueueSize),
		stop:       make(chan struct{}),
	}
}

// Start launches the delivery workers.
func (s *NotificationService) Start() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case n := <-s.queue:
					s.process(n)
				case <-s.stop:
					return
				}
			}
		}()
	}
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	close(s.stop)
	s.wg.Wait()
}

// Dispatch persists a notification and queues it for delivery. It
// never returns an error: the emitting workflow must not fail because
// delivery did.
func (s *NotificationService) Dispatch(userID, notifyType, title, body string, data map[string]interface{}) {
	var payload []byte
	if data != nil {
		payload, _ = json.Marshal(data)
	}

	now := time.Now()
	n := &model.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      notifyType,
		Title:     title,
		Body:      body,
		Data:      payload,
		Status:    model.NotificationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Save(n); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"type":    notifyType,
			"error":   err,
		}).Error("failed to persist notification")
		return
	}

	if s.workers == 0 {
		s.process(n)
		return
	}

	select {
	case s.queue <- n:
	default:
		// queue full; the row stays pending and RedeliverPending
		// picks it up later
		s.logger.WithField("notification_id", n.ID).Warn("notification queue full")
	}
}

// RedeliverPending re-queues undelivered notifications, e.g. after a
// restart.
func (s *NotificationService) RedeliverPending() {
	pending, err := s.repo.FindPending(notifyQueueSize)
	if err != nil {
		s.logger.WithField("error", err).Error("failed to load pending notifications")
		return
	}
	for _, n := range pending {
		if s.workers == 0 {
			s.process(n)
			continue
		}
		select {
		case s.queue <- n:
		default:
			return
		}
	}
}

// process delivers one notification over push and email and updates the
// outbox row.
func (s *NotificationService) process(n *model.Notification) {
	s.push(n)

	status := model.NotificationSent
	if err := s.email(n); err != nil {
		status = model.NotificationFailed
		s.logger.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"user_id":         n.UserID,
			"error":           err,
		}).Error("failed to deliver notification email")
	}

	n.Status = status
	n.UpdatedAt = time.Now()
	if err := s.repo.Save(n); err != nil {
		s.logger.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"error":           err,
		}).Error("failed to update notification status")
	}
	metrics.RecordNotificationDispatched(status)
}

// push broadcasts the notification to the user's WebSocket clients.
func (s *NotificationService) push(n *model.Notification) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	s.hub.BroadcastToUser(n.UserID, payload)
}

// email sends the notification by email with retry and backoff.
func (s *NotificationService) email(n *model.Notification) error {
	if s.mail == nil {
		return nil
	}

	address, err := s.userRepo.EmailByID(n.UserID)
	if err != nil || address == "" {
		// no address on file is not a delivery failure
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < notifyMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * s.retryDelay)
			n.RetryCount++
		}
		if lastErr = s.mail.Send(address, n.Title, n.Body); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(userID string, limit int) ([]*model.Notification, error) {
	return s.repo.FindByUser(userID, limit)
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(id, userID string) error {
	if err := s.repo.MarkRead(id, userID); err != nil {
		return ErrNotFound
	}
	return nil
}
