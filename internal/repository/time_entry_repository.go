package repository

import (
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"gorm.io/gorm"
)

// TimeEntryRepository is the time entry ledger store interface.
type TimeEntryRepository interface {
	Save(entry *model.TimeEntry) error
	FindByID(id string) (*model.TimeEntry, error)
	FindByWorkOrder(workOrderID string) ([]*model.TimeEntry, error)
	FindOpenByWorkOrderAndUser(workOrderID, userID string) (*model.TimeEntry, error)
	SumDurations(workOrderID string) (float64, error)
}

type timeEntryRepository struct {
	db *gorm.DB
}

// NewTimeEntryRepository creates a time entry repository.
func NewTimeEntryRepository(db *gorm.DB) TimeEntryRepository {
	return &timeEntryRepository{db: db}
}

// Save persists a time entry.
func (r *timeEntryRepository) Save(entry *model.TimeEntry) error {
	return r.db.Save(entry).Error
}

// FindByID finds a time entry by ID.
func (r *timeEntryRepository) FindByID(id string) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	if err := r.db.Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByWorkOrder lists all entries of a work order, oldest first.
func (r *timeEntryRepository) FindByWorkOrder(workOrderID string) ([]*model.TimeEntry, error) {
	var entries []*model.TimeEntry
	err := r.db.
		Where("work_order_id = ?", workOrderID).
		Order("start_time ASC").
		Find(&entries).Error
	return entries, err
}

// FindOpenByWorkOrderAndUser finds the worker's open entry on the order.
func (r *timeEntryRepository) FindOpenByWorkOrderAndUser(workOrderID, userID string) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	err := r.db.
		Where("work_order_id = ? AND user_id = ? AND end_time IS NULL", workOrderID, userID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SumDurations totals duration_hours over all entries of the order.
// Open entries carry a NULL duration and count as zero.
func (r *timeEntryRepository) SumDurations(workOrderID string) (float64, error) {
	var total float64
	err := r.db.Model(&model.TimeEntry{}).
		Where("work_order_id = ?", workOrderID).
		Select("COALESCE(SUM(duration_hours), 0)").
		Scan(&total).Error
	return total, err
}
