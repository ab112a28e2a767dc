package models

import "time"

// PickupPoint is a physical handover location where clients collect
// orders against their OTP.
type PickupPoint struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	City      string    `gorm:"type:varchar(120);index" json:"city"`
	Address   string    `gorm:"type:varchar(500)" json:"address"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name.
func (PickupPoint) TableName() string {
	return "pickup_points"
}
