package models

import (
	"time"

	"gorm.io/gorm"
)

// Shop is a vendor storefront. WalletBalance is the vendor's credited
// earnings; it only moves through wallet transactions.
type Shop struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	OwnerID       uint           `gorm:"index;not null" json:"owner_id"`
	Name          string         `gorm:"type:varchar(200);not null" json:"name"`
	Slug          string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description   string         `gorm:"type:text" json:"description,omitempty"`
	WalletBalance Money          `gorm:"type:decimal(20,2);not null;default:0" json:"wallet_balance"`
	OrdersCount   int64          `gorm:"not null;default:0" json:"orders_count"`
	ProductsCount int64          `gorm:"not null;default:0" json:"products_count"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Shop) TableName() string {
	return "shops"
}
