package models

import "time"

// Invoice is a generated PDF for a settled order. ShopID nil means the
// client-facing invoice covering the full order; otherwise it is the
// per-shop invoice for that shop's sub-order.
type Invoice struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	OrderID       uint       `gorm:"index;not null" json:"order_id"`
	ShopID        *uint      `gorm:"index" json:"shop_id,omitempty"`
	InvoiceNumber string     `gorm:"uniqueIndex;not null" json:"invoice_number"`
	Amount        Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	Currency      string     `gorm:"type:varchar(8);not null;default:'XOF'" json:"currency"`
	PDFURL        string     `gorm:"type:varchar(500)" json:"pdf_url"`
	ObjectKey     string     `gorm:"type:varchar(300)" json:"object_key"`
	Status        string     `gorm:"type:varchar(20);index;not null;default:'generated'" json:"status"`
	GeneratedAt   *time.Time `json:"generated_at,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName sets the table name.
func (Invoice) TableName() string {
	return "invoices"
}
