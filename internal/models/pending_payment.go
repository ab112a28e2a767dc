package models

import "time"

// PendingPayment is the settlement durability checkpoint. It is written
// before any settlement work starts and finalized after, so a crash
// mid-settlement leaves a row the sweeper can replay.
type PendingPayment struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	TrackingNumber  string     `gorm:"uniqueIndex:idx_pending_tracking_txn;not null" json:"tracking_number"`
	TransactionID   string     `gorm:"uniqueIndex:idx_pending_tracking_txn;not null" json:"transaction_id"`
	Gateway         string     `gorm:"type:varchar(32);index" json:"gateway"`
	Amount          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	Currency        string     `gorm:"type:varchar(8);not null;default:'XOF'" json:"currency"`
	Status          string     `gorm:"type:varchar(20);index;not null;default:'processing'" json:"status"`
	PaymentIntentID *uint      `gorm:"index" json:"payment_intent_id,omitempty"`
	ErrorMessage    string     `gorm:"type:text" json:"error_message,omitempty"`
	RetryCount      int        `gorm:"not null;default:0" json:"retry_count"`
	RetriedAt       *time.Time `json:"retried_at,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName sets the table name.
func (PendingPayment) TableName() string {
	return "pending_payments"
}
