package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a marketplace account: client, store owner, pickup-point
// operator, or super admin.
type User struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Name          string         `gorm:"type:varchar(200);not null" json:"name"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string         `gorm:"not null" json:"-"`
	Phone         string         `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Role          string         `gorm:"type:varchar(32);index;not null;default:'client'" json:"role"`
	PickupPointID *uint          `gorm:"index" json:"pickup_point_id,omitempty"` // set for pickup_point role
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt   *time.Time     `json:"last_login_at"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (User) TableName() string {
	return "users"
}
