package repository

import "time"

// OrderListFilter filters order listings.
type OrderListFilter struct {
	Page           int
	PageSize       int
	CustomerID     uint
	ShopID         uint
	PickupPointID  uint
	OrderStatus    string
	PaymentStatus  string
	TrackingNumber string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	OrderBy        string
	SortDirection  string
}

// ProductListFilter filters product listings.
type ProductListFilter struct {
	Page       int
	PageSize   int
	ShopID     uint
	CategoryID uint
	Search     string
	Status     string
}

// ShopListFilter filters shop listings.
type ShopListFilter struct {
	Page       int
	PageSize   int
	OwnerID    uint
	Search     string
	OnlyActive bool
}

// PendingPaymentListFilter filters pending payment listings.
type PendingPaymentListFilter struct {
	Page           int
	PageSize       int
	Statuses       []string
	Gateway        string
	TrackingNumber string
}

// WalletTransactionListFilter filters wallet ledger listings.
type WalletTransactionListFilter struct {
	Page        int
	PageSize    int
	ShopID      uint
	OrderID     uint
	Type        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CampaignListFilter filters campaign listings.
type CampaignListFilter struct {
	Page       int
	PageSize   int
	OnlyActive bool
	Search     string
}

// InvoiceListFilter filters invoice listings.
type InvoiceListFilter struct {
	Page     int
	PageSize int
	OrderID  uint
	ShopID   uint
	Status   string
}
