package repository

import (
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"gorm.io/gorm"
)

// UserRepository is the user profile store interface. EmailByID is the
// privileged directory lookup; it is only reachable through the services
// that send email, never through a request-scoped read path.
type UserRepository interface {
	Save(user *model.UserProfile) error
	FindByID(id string) (*model.UserProfile, error)
	FindApprovedManagers() ([]*model.UserProfile, error)
	EmailByID(id string) (string, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Save persists a user profile.
func (r *userRepository) Save(user *model.UserProfile) error {
	return r.db.Save(user).Error
}

// FindByID finds a user profile by ID.
func (r *userRepository) FindByID(id string) (*model.UserProfile, error) {
	var user model.UserProfile
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindApprovedManagers lists all approved managers.
func (r *userRepository) FindApprovedManagers() ([]*model.UserProfile, error) {
	var users []*model.UserProfile
	err := r.db.
		Where("role = ? AND approved = ?", model.RoleManager, true).
		Find(&users).Error
	return users, err
}

// EmailByID resolves a user's email address.
func (r *userRepository) EmailByID(id string) (string, error) {
	var user model.UserProfile
	if err := r.db.Select("email").Where("id = ?", id).First(&user).Error; err != nil {
		return "", err
	}
	return user.Email, nil
}
