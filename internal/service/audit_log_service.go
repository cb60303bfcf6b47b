package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/repository"
)

// AuditLogService records user actions. Recording failures are logged
// and swallowed so audit trouble never fails the action itself.
type AuditLogService struct {
	repo   repository.AuditLogRepository
	logger *logrus.Logger
}

// NewAuditLogService creates an audit log service.
func NewAuditLogService(repo repository.AuditLogRepository, logger *logrus.Logger) *AuditLogService {
	return &AuditLogService{repo: repo, logger: logger}
}

// AuditEvent describes one action to record.
type AuditEvent struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	RequestID    string
	IP           string
	UserAgent    string
	Details      map[string]interface{}
}

// RecordAction persists one audit log entry.
func (s *AuditLogService) RecordAction(event AuditEvent) {
	var details []byte
	if event.Details != nil {
		details, _ = json.Marshal(event.Details)
	}

	log := &model.AuditLog{
		ID:           uuid.New().String(),
		UserID:       event.UserID,
		Action:       event.Action,
		ResourceType: event.ResourceType,
		ResourceID:   event.ResourceID,
		RequestID:    event.RequestID,
		IP:           event.IP,
		UserAgent:    event.UserAgent,
		Details:      details,
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Save(log); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": event.UserID,
			"action":  event.Action,
			"error":   err,
		}).Error("failed to record audit log")
	}
}

// ListByResource returns the audit trail of one resource.
func (s *AuditLogService) ListByResource(resourceType, resourceID string) ([]*model.AuditLog, error) {
	return s.repo.FindByResource(resourceType, resourceID)
}
