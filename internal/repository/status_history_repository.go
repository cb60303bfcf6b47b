package repository

import (
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"gorm.io/gorm"
)

// StatusHistoryRepository is the status transition history store interface.
type StatusHistoryRepository interface {
	FindByWorkOrder(workOrderID string) ([]*model.StatusHistory, error)
}

type statusHistoryRepository struct {
	db *gorm.DB
}

// NewStatusHistoryRepository creates a status history repository.
func NewStatusHistoryRepository(db *gorm.DB) StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

// FindByWorkOrder lists status transitions of a work order, oldest first.
func (r *statusHistoryRepository) FindByWorkOrder(workOrderID string) ([]*model.StatusHistory, error) {
	var history []*model.StatusHistory
	err := r.db.
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC").
		Find(&history).Error
	return history, err
}
