package repository

import (
	"errors"

	"github.com/edoto/marketplace/internal/models"

	"gorm.io/gorm"
)

// InvoiceRepository is the invoice data access interface.
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	GetByID(id uint) (*models.Invoice, error)
	GetByOrderAndShop(orderID uint, shopID *uint) (*models.Invoice, error)
	ListByOrder(orderID uint) ([]models.Invoice, error)
	List(filter InvoiceListFilter) ([]models.Invoice, int64, error)
	WithTx(tx *gorm.DB) *GormInvoiceRepository
}

// GormInvoiceRepository is the GORM implementation.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates the repository.
func NewInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormInvoiceRepository) WithTx(tx *gorm.DB) *GormInvoiceRepository {
	if tx == nil {
		return r
	}
	return &GormInvoiceRepository{db: tx}
}

// Create inserts an invoice.
func (r *GormInvoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

// GetByID fetches an invoice, nil when absent.
func (r *GormInvoiceRepository) GetByID(id uint) (*models.Invoice, error) {
	if id == 0 {
		return nil, nil
	}
	var invoice models.Invoice
	if err := r.db.First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// GetByOrderAndShop fetches the invoice for an order scoped to one shop.
// A nil shopID addresses the client invoice. Returns nil when absent, which
// is how generation stays idempotent per order and shop.
func (r *GormInvoiceRepository) GetByOrderAndShop(orderID uint, shopID *uint) (*models.Invoice, error) {
	if orderID == 0 {
		return nil, nil
	}
	query := r.db.Where("order_id = ?", orderID)
	if shopID == nil {
		query = query.Where("shop_id IS NULL")
	} else {
		query = query.Where("shop_id = ?", *shopID)
	}
	var invoice models.Invoice
	if err := query.First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// ListByOrder returns all invoices of an order.
func (r *GormInvoiceRepository) ListByOrder(orderID uint) ([]models.Invoice, error) {
	if orderID == 0 {
		return nil, nil
	}
	var invoices []models.Invoice
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// List pages through invoices.
func (r *GormInvoiceRepository) List(filter InvoiceListFilter) ([]models.Invoice, int64, error) {
	query := r.db.Model(&models.Invoice{})
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.ShopID != 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var invoices []models.Invoice
	if err := query.Order("id desc").Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}
