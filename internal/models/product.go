package models

import (
	"time"

	"gorm.io/gorm"
)

// Product belongs to exactly one shop.
type Product struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	ShopID     uint           `gorm:"index;not null" json:"shop_id"`
	CategoryID *uint          `gorm:"index" json:"category_id,omitempty"`
	Name       string         `gorm:"type:varchar(300);not null" json:"name"`
	Slug       string         `gorm:"uniqueIndex;not null" json:"slug"`
	Price      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`
	SalePrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"sale_price"`
	Quantity   int            `gorm:"not null;default:0" json:"quantity"`
	Status     string         `gorm:"type:varchar(32);index;not null;default:'published'" json:"status"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Product) TableName() string {
	return "products"
}

// EffectivePrice returns the sale price when set, the list price otherwise.
func (p Product) EffectivePrice() Money {
	if p.SalePrice.IsPositive() {
		return p.SalePrice
	}
	return p.Price
}
