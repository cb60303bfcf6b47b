package repository

import (
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"gorm.io/gorm"
)

// AssignmentRepository is the worker assignment store interface.
type AssignmentRepository interface {
	Create(assignment *model.Assignment) error
	Delete(workOrderID, userID string) error
	FindByWorkOrder(workOrderID string) ([]*model.Assignment, error)
	Exists(workOrderID, userID string) (bool, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates an assignment repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

// Create inserts an assignment.
func (r *assignmentRepository) Create(assignment *model.Assignment) error {
	return r.db.Create(assignment).Error
}

// Delete removes a worker from a work order.
func (r *assignmentRepository) Delete(workOrderID, userID string) error {
	return r.db.
		Where("work_order_id = ? AND user_id = ?", workOrderID, userID).
		Delete(&model.Assignment{}).Error
}

// FindByWorkOrder lists all assignments of a work order.
func (r *assignmentRepository) FindByWorkOrder(workOrderID string) ([]*model.Assignment, error) {
	var assignments []*model.Assignment
	err := r.db.
		Where("work_order_id = ?", workOrderID).
		Order("assigned_at ASC").
		Find(&assignments).Error
	return assignments, err
}

// Exists reports whether the worker is assigned to the work order.
func (r *assignmentRepository) Exists(workOrderID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Assignment{}).
		Where("work_order_id = ? AND user_id = ?", workOrderID, userID).
		Count(&count).Error
	return count > 0, err
}
