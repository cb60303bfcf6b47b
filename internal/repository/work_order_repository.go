package repository

import (
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"gorm.io/gorm"
)

// WorkOrderRepository is the work order store interface.
type WorkOrderRepository interface {
	Create(order *model.WorkOrder) error
	Save(order *model.WorkOrder) error
	FindByID(id string) (*model.WorkOrder, error)
	FindByIDWithRelated(id string) (*model.WorkOrder, error)
	FindByFilter(filter *WorkOrderFilter, page, pageSize int) ([]*model.WorkOrder, int64, error)
}

// WorkOrderFilter narrows work order queries. Nil fields are ignored.
type WorkOrderFilter struct {
	Status     *model.Status
	Priority   *model.Priority
	ClientID   *string
	AssignedTo *string
}

type workOrderRepository struct {
	db *gorm.DB
}

// NewWorkOrderRepository creates a work order repository.
func NewWorkOrderRepository(db *gorm.DB) WorkOrderRepository {
	return &workOrderRepository{db: db}
}

// Create inserts a new work order.
func (r *workOrderRepository) Create(order *model.WorkOrder) error {
	return r.db.Create(order).Error
}

// Save persists a work order.
func (r *workOrderRepository) Save(order *model.WorkOrder) error {
	return r.db.Save(order).Error
}

// FindByID finds a work order by ID.
func (r *workOrderRepository) FindByID(id string) (*model.WorkOrder, error) {
	var order model.WorkOrder
	if err := r.db.Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDWithRelated finds a work order with its assignments, time
// entries and attachments preloaded.
func (r *workOrderRepository) FindByIDWithRelated(id string) (*model.WorkOrder, error) {
	var order model.WorkOrder
	err := r.db.
		Preload("Assignments").
		Preload("TimeEntries").
		Preload("Attachments").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByFilter lists work orders matching the filter, newest first.
func (r *workOrderRepository) FindByFilter(filter *WorkOrderFilter, page, pageSize int) ([]*model.WorkOrder, int64, error) {
	query := r.db.Model(&model.WorkOrder{})

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.Priority != nil {
			query = query.Where("priority = ?", *filter.Priority)
		}
		if filter.ClientID != nil {
			query = query.Where("client_id = ?", *filter.ClientID)
		}
		if filter.AssignedTo != nil {
			query = query.Where("id IN (?)",
				r.db.Model(&model.Assignment{}).Select("work_order_id").Where("user_id = ?", *filter.AssignedTo))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var orders []*model.WorkOrder
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	return orders, total, err
}
