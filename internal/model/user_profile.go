package model

import (
	"errors"
	"time"
)

// Role of a platform user.
type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RoleClient   Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleEmployee, RoleClient:
		return true
	}
	return false
}

// UserProfile is the local profile row for a platform user. Email lives
// here behind the privileged directory lookup; ordinary read paths do not
// expose it.
type UserProfile struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      Role      `gorm:"type:varchar(16);not null;index" json:"role"`
	Approved  bool      `gorm:"not null;default:false;index" json:"approved"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name
func (UserProfile) TableName() string {
	return "user_profiles"
}

// Validate validates the user profile model
func (u *UserProfile) Validate() error {
	if u.ID == "" {
		return errors.New("user ID is required")
	}
	if u.Name == "" {
		return errors.New("user name is required")
	}
	if !u.Role.Valid() {
		return errors.New("user role is invalid")
	}
	return nil
}
