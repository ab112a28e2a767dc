package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign is a kit-distribution drive: a fixed stock of kits handed
// out to registrants after OTP verification.
type Campaign struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Title           string         `gorm:"type:varchar(300);not null" json:"title"`
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description     string         `gorm:"type:text" json:"description,omitempty"`
	KitsTotal       int64          `gorm:"not null;default:0" json:"kits_total"`
	KitsDistributed int64          `gorm:"not null;default:0" json:"kits_distributed"`
	StartsAt        *time.Time     `json:"starts_at,omitempty"`
	EndsAt          *time.Time     `json:"ends_at,omitempty"`
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Campaign) TableName() string {
	return "campaigns"
}

// CampaignRegistration is one registrant. The OTP fields follow the
// same issue/verify lifecycle as order pickup OTPs.
type CampaignRegistration struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	CampaignID     uint       `gorm:"uniqueIndex:idx_campaign_phone;not null" json:"campaign_id"`
	Name           string     `gorm:"type:varchar(200);not null" json:"name"`
	Phone          string     `gorm:"uniqueIndex:idx_campaign_phone;type:varchar(32);not null" json:"phone"`
	Email          string     `gorm:"type:varchar(200)" json:"email,omitempty"`
	OTPCode        string     `gorm:"type:varchar(12)" json:"-"`
	OTPExpiresAt   *time.Time `json:"-"`
	OTPAttempts    int        `gorm:"not null;default:0" json:"-"`
	OTPVerifiedAt  *time.Time `json:"otp_verified_at,omitempty"`
	KitDeliveredAt *time.Time `json:"kit_delivered_at,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName sets the table name.
func (CampaignRegistration) TableName() string {
	return "campaign_registrations"
}
