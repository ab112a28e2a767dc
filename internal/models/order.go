package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is a client order. Each shop involved gets one OrderChild
// sub-order; the parent carries the totals and the pickup OTP.
type Order struct {
	ID              uint              `gorm:"primarykey" json:"id"`
	TrackingNumber  string            `gorm:"uniqueIndex;not null" json:"tracking_number"`
	CustomerID      uint              `gorm:"index;not null" json:"customer_id"`
	CustomerContact string            `gorm:"type:varchar(64)" json:"customer_contact,omitempty"`
	PickupPointID   *uint             `gorm:"index" json:"pickup_point_id,omitempty"`
	Amount          Money             `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	SalesTax        Money             `gorm:"type:decimal(20,2);not null;default:0" json:"sales_tax"`
	Total           Money             `gorm:"type:decimal(20,2);not null;default:0" json:"total"`
	PaidTotal       Money             `gorm:"type:decimal(20,2);not null;default:0" json:"paid_total"`
	Currency        string            `gorm:"type:varchar(8);not null;default:'XOF'" json:"currency"`
	PaymentGateway  string            `gorm:"type:varchar(32);index" json:"payment_gateway"`
	OrderStatus     string            `gorm:"type:varchar(40);index;not null" json:"order_status"`
	PaymentStatus   string            `gorm:"type:varchar(40);index;not null" json:"payment_status"`
	OTPCode         string            `gorm:"type:varchar(12)" json:"-"`
	OTPExpiresAt    *time.Time        `json:"-"`
	OTPAttempts     int               `gorm:"not null;default:0" json:"-"`
	OTPVerifiedAt   *time.Time        `json:"otp_verified_at,omitempty"`
	PaymentInfo     PaymentIntentInfo `gorm:"column:payment_intent_info;type:json" json:"payment_intent_info,omitempty"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"-"`

	Children []OrderChild `gorm:"foreignKey:OrderID" json:"children,omitempty"`
}

// TableName sets the table name.
func (Order) TableName() string {
	return "orders"
}

// OrderChild is the per-shop slice of an order.
type OrderChild struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	OrderID       uint      `gorm:"index;not null" json:"order_id"`
	ShopID        uint      `gorm:"index;not null" json:"shop_id"`
	ProductID     uint      `gorm:"index;not null" json:"product_id"`
	ProductName   string    `gorm:"type:varchar(300)" json:"product_name"`
	Quantity      int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	Subtotal      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`
	OrderStatus   string    `gorm:"type:varchar(40);index;not null" json:"order_status"`
	PaymentStatus string    `gorm:"type:varchar(40);index;not null" json:"payment_status"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName sets the table name.
func (OrderChild) TableName() string {
	return "order_children"
}
