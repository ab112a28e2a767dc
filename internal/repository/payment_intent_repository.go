package repository

import (
	"errors"
	"strings"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"

	"gorm.io/gorm"
)

// PaymentIntentRepository is the payment intent data access interface.
type PaymentIntentRepository interface {
	Create(intent *models.PaymentIntent) error
	Update(intent *models.PaymentIntent) error
	GetByID(id uint) (*models.PaymentIntent, error)
	GetByOrderID(orderID uint) (*models.PaymentIntent, error)
	GetByTransactionRef(txRef string) (*models.PaymentIntent, error)
	ListSuccessWithoutInvoice(limit int) ([]models.PaymentIntent, error)
	WithTx(tx *gorm.DB) *GormPaymentIntentRepository
}

// GormPaymentIntentRepository is the GORM implementation.
type GormPaymentIntentRepository struct {
	db *gorm.DB
}

// NewPaymentIntentRepository creates the repository.
func NewPaymentIntentRepository(db *gorm.DB) *GormPaymentIntentRepository {
	return &GormPaymentIntentRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormPaymentIntentRepository) WithTx(tx *gorm.DB) *GormPaymentIntentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentIntentRepository{db: tx}
}

// Create inserts a payment intent.
func (r *GormPaymentIntentRepository) Create(intent *models.PaymentIntent) error {
	return r.db.Create(intent).Error
}

// Update saves a payment intent.
func (r *GormPaymentIntentRepository) Update(intent *models.PaymentIntent) error {
	return r.db.Save(intent).Error
}

// GetByID fetches a payment intent, nil when absent.
func (r *GormPaymentIntentRepository) GetByID(id uint) (*models.PaymentIntent, error) {
	if id == 0 {
		return nil, nil
	}
	var intent models.PaymentIntent
	if err := r.db.First(&intent, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// GetByOrderID fetches the latest intent for an order, nil when absent.
func (r *GormPaymentIntentRepository) GetByOrderID(orderID uint) (*models.PaymentIntent, error) {
	if orderID == 0 {
		return nil, nil
	}
	var intent models.PaymentIntent
	if err := r.db.Where("order_id = ?", orderID).
		Order("id desc").
		First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// GetByTransactionRef fetches an intent by transaction reference, nil when absent.
func (r *GormPaymentIntentRepository) GetByTransactionRef(txRef string) (*models.PaymentIntent, error) {
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return nil, nil
	}
	var intent models.PaymentIntent
	if err := r.db.Where("transaction_ref = ?", txRef).First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// ListSuccessWithoutInvoice returns succeeded intents whose orders have no
// invoice rows yet. Feeds the invoice backfill sweep.
func (r *GormPaymentIntentRepository) ListSuccessWithoutInvoice(limit int) ([]models.PaymentIntent, error) {
	query := r.db.Model(&models.PaymentIntent{}).
		Where("status = ?", constants.PaymentIntentStatusSuccess).
		Where("order_id NOT IN (?)", r.db.Model(&models.Invoice{}).Select("order_id")).
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var intents []models.PaymentIntent
	if err := query.Find(&intents).Error; err != nil {
		return nil, err
	}
	return intents, nil
}
