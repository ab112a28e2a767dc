package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"

	"gorm.io/gorm"
)

// PendingPaymentRepository is the pending payment data access interface.
type PendingPaymentRepository interface {
	Create(pending *models.PendingPayment) error
	GetByID(id uint) (*models.PendingPayment, error)
	GetByTrackingAndTransaction(trackingNumber, transactionID string) (*models.PendingPayment, error)
	ListRetryable(grace time.Duration, retryCap, limit int) ([]models.PendingPayment, error)
	List(filter PendingPaymentListFilter) ([]models.PendingPayment, int64, error)
	MarkCompleted(id uint, paymentIntentID *uint) error
	MarkFailed(id uint, message string) error
	IncrementRetry(id uint, message string, retryCap int) (dead bool, err error)
	WithTx(tx *gorm.DB) *GormPendingPaymentRepository
}

// GormPendingPaymentRepository is the GORM implementation.
type GormPendingPaymentRepository struct {
	db *gorm.DB
}

// NewPendingPaymentRepository creates the repository.
func NewPendingPaymentRepository(db *gorm.DB) *GormPendingPaymentRepository {
	return &GormPendingPaymentRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormPendingPaymentRepository) WithTx(tx *gorm.DB) *GormPendingPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPendingPaymentRepository{db: tx}
}

// Create inserts a pending payment row.
func (r *GormPendingPaymentRepository) Create(pending *models.PendingPayment) error {
	return r.db.Create(pending).Error
}

// GetByID fetches a pending payment, nil when absent.
func (r *GormPendingPaymentRepository) GetByID(id uint) (*models.PendingPayment, error) {
	if id == 0 {
		return nil, nil
	}
	var pending models.PendingPayment
	if err := r.db.First(&pending, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pending, nil
}

// GetByTrackingAndTransaction fetches by the natural key, nil when absent.
func (r *GormPendingPaymentRepository) GetByTrackingAndTransaction(trackingNumber, transactionID string) (*models.PendingPayment, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	transactionID = strings.TrimSpace(transactionID)
	if trackingNumber == "" || transactionID == "" {
		return nil, nil
	}
	var pending models.PendingPayment
	if err := r.db.Where("tracking_number = ? AND transaction_id = ?", trackingNumber, transactionID).
		First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pending, nil
}

// ListRetryable returns failed or stuck rows older than the grace window that
// have not exhausted the retry cap. Oldest first so starved rows drain.
func (r *GormPendingPaymentRepository) ListRetryable(grace time.Duration, retryCap, limit int) ([]models.PendingPayment, error) {
	cutoff := time.Now().Add(-grace)
	query := r.db.
		Where("status IN ?", []string{constants.PendingPaymentStatusProcessing, constants.PendingPaymentStatusFailed}).
		Where("retry_count < ?", retryCap).
		Where("updated_at < ?", cutoff).
		Order("updated_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.PendingPayment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List pages through pending payments.
func (r *GormPendingPaymentRepository) List(filter PendingPaymentListFilter) ([]models.PendingPayment, int64, error) {
	query := r.db.Model(&models.PendingPayment{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Gateway != "" {
		query = query.Where("gateway = ?", filter.Gateway)
	}
	if filter.TrackingNumber != "" {
		query = query.Where("tracking_number = ?", strings.TrimSpace(filter.TrackingNumber))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.PendingPayment
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// MarkCompleted finalizes a pending payment, recording which intent settled it.
func (r *GormPendingPaymentRepository) MarkCompleted(id uint, paymentIntentID *uint) error {
	if id == 0 {
		return nil
	}
	fields := map[string]interface{}{
		"status":        constants.PendingPaymentStatusCompleted,
		"error_message": "",
	}
	if paymentIntentID != nil {
		fields["payment_intent_id"] = *paymentIntentID
	}
	return r.db.Model(&models.PendingPayment{}).Where("id = ?", id).Updates(fields).Error
}

// MarkFailed records a failure message without touching the retry counter.
func (r *GormPendingPaymentRepository) MarkFailed(id uint, message string) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.PendingPayment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        constants.PendingPaymentStatusFailed,
		"error_message": truncateMessage(message, 500),
	}).Error
}

// IncrementRetry bumps the retry counter and moves the row to dead when the
// cap is reached. Returns whether the row is now dead.
func (r *GormPendingPaymentRepository) IncrementRetry(id uint, message string, retryCap int) (bool, error) {
	if id == 0 {
		return false, nil
	}
	pending, err := r.GetByID(id)
	if err != nil {
		return false, err
	}
	if pending == nil {
		return false, nil
	}
	now := time.Now()
	nextCount := pending.RetryCount + 1
	status := constants.PendingPaymentStatusFailed
	dead := nextCount >= retryCap
	if dead {
		status = constants.PendingPaymentStatusDead
	}
	err = r.db.Model(&models.PendingPayment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"retry_count":   nextCount,
		"retried_at":    now,
		"status":        status,
		"error_message": truncateMessage(message, 500),
	}).Error
	if err != nil {
		return false, err
	}
	return dead, nil
}

func truncateMessage(message string, limit int) string {
	if len(message) <= limit {
		return message
	}
	return message[:limit]
}
