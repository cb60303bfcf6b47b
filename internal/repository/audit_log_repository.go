package repository

import (
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"gorm.io/gorm"
)

// AuditLogRepository is the audit log store interface.
type AuditLogRepository interface {
	Save(log *model.AuditLog) error
	FindByResource(resourceType, resourceID string) ([]*model.AuditLog, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates an audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Save persists an audit log row.
func (r *auditLogRepository) Save(log *model.AuditLog) error {
	return r.db.Create(log).Error
}

// FindByResource lists audit entries for a resource, newest first.
func (r *auditLogRepository) FindByResource(resourceType, resourceID string) ([]*model.AuditLog, error) {
	var logs []*model.AuditLog
	err := r.db.
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
