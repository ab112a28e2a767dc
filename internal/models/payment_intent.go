package models

import "time"

// PaymentIntent records one payment attempt against an order. A
// settled order has exactly one intent in payment-success.
type PaymentIntent struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	OrderID        uint      `gorm:"index;not null" json:"order_id"`
	TrackingNumber string    `gorm:"index;not null" json:"tracking_number"`
	PaymentGateway string    `gorm:"type:varchar(32);index;not null" json:"payment_gateway"`
	TransactionRef string    `gorm:"uniqueIndex;not null" json:"transaction_ref"`
	Amount         Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	Currency       string    `gorm:"type:varchar(8);not null;default:'XOF'" json:"currency"`
	Status         string    `gorm:"type:varchar(40);index;not null" json:"status"`
	ClientSecret   string    `gorm:"type:varchar(200)" json:"-"`
	RedirectURL    string    `gorm:"type:varchar(500)" json:"redirect_url,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName sets the table name.
func (PaymentIntent) TableName() string {
	return "payment_intents"
}
