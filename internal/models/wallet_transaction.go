package models

import "time"

// WalletTransaction is an append-only ledger row for a shop wallet.
// Failed crediting attempts are recorded with status failed and no
// balance movement.
type WalletTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	ShopID        uint      `gorm:"index;not null" json:"shop_id"`
	OrderID       uint      `gorm:"index" json:"order_id,omitempty"`
	OrderChildID  uint      `gorm:"index" json:"order_child_id,omitempty"`
	Amount        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_before"`
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_after"`
	Type          string    `gorm:"type:varchar(16);index;not null" json:"type"`
	Status        string    `gorm:"type:varchar(16);index;not null" json:"status"`
	Note          string    `gorm:"type:varchar(500)" json:"note,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName sets the table name.
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
