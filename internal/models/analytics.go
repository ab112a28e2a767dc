package models

import "time"

// Analytics is a revenue snapshot row. ShopID nil is the single global
// row; otherwise the row covers one shop. Settlements bump the counters
// incrementally and the worker recomputes the full snapshot on a timer.
type Analytics struct {
	ID               uint         `gorm:"primarykey" json:"id"`
	ShopID           *uint        `gorm:"uniqueIndex" json:"shop_id,omitempty"`
	TotalRevenue     Money        `gorm:"type:decimal(20,2);not null;default:0" json:"total_revenue"`
	TotalOrders      int64        `gorm:"not null;default:0" json:"total_orders"`
	TodaysRevenue    Money        `gorm:"type:decimal(20,2);not null;default:0" json:"todays_revenue"`
	TotalShops       int64        `gorm:"not null;default:0" json:"total_shops"`
	TotalVendors     int64        `gorm:"not null;default:0" json:"total_vendors"`
	Months           MonthSeries  `gorm:"type:json" json:"months,omitempty"`
	TodayOrderStatus StatusCounts `gorm:"column:today_order_status;type:json" json:"today_order_status,omitempty"`
	UpdatedAt        time.Time    `json:"updated_at"`
	CreatedAt        time.Time    `json:"created_at"`
}

// TableName sets the table name.
func (Analytics) TableName() string {
	return "analytics"
}
