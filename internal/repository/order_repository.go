package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/edoto/marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var orderSortColumns = map[string]string{
	"id":         "id",
	"total":      "total",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// OrderRepository is the order data access interface.
type OrderRepository interface {
	Create(order *models.Order) error
	Update(order *models.Order) error
	UpdateFields(orderID uint, fields map[string]interface{}) error
	UpdateChildFields(childID uint, fields map[string]interface{}) error
	UpdateChildrenStatus(orderID uint, orderStatus, paymentStatus string) error
	GetByID(id uint) (*models.Order, error)
	GetByTrackingNumber(trackingNumber string) (*models.Order, error)
	GetByTrackingNumberForUpdate(trackingNumber string) (*models.Order, error)
	ListChildren(orderID uint) ([]models.OrderChild, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository is the GORM implementation.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates the repository.
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create inserts an order along with its children.
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// Update saves an order.
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// UpdateFields updates selected order columns.
func (r *GormOrderRepository) UpdateFields(orderID uint, fields map[string]interface{}) error {
	if orderID == 0 || len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).Updates(fields).Error
}

// UpdateChildFields updates selected order child columns.
func (r *GormOrderRepository) UpdateChildFields(childID uint, fields map[string]interface{}) error {
	if childID == 0 || len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.OrderChild{}).Where("id = ?", childID).Updates(fields).Error
}

// UpdateChildrenStatus moves every child of an order to the given statuses.
func (r *GormOrderRepository) UpdateChildrenStatus(orderID uint, orderStatus, paymentStatus string) error {
	if orderID == 0 {
		return nil
	}
	fields := map[string]interface{}{}
	if orderStatus != "" {
		fields["order_status"] = orderStatus
	}
	if paymentStatus != "" {
		fields["payment_status"] = paymentStatus
	}
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.OrderChild{}).Where("order_id = ?", orderID).Updates(fields).Error
}

// GetByID fetches an order with its children, nil when absent.
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Children").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByTrackingNumber fetches an order by tracking number, nil when absent.
func (r *GormOrderRepository) GetByTrackingNumber(trackingNumber string) (*models.Order, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Children").
		Where("tracking_number = ?", trackingNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByTrackingNumberForUpdate fetches an order with a row lock. Children are
// loaded in a second query since the lock only applies to the parent row.
func (r *GormOrderRepository) GetByTrackingNumberForUpdate(trackingNumber string) (*models.Order, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tracking_number = ?", trackingNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	children, err := r.ListChildren(order.ID)
	if err != nil {
		return nil, err
	}
	order.Children = children
	return &order, nil
}

// ListChildren returns the children of an order.
func (r *GormOrderRepository) ListChildren(orderID uint) ([]models.OrderChild, error) {
	if orderID == 0 {
		return nil, nil
	}
	var children []models.OrderChild
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}

// List pages through orders.
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.PickupPointID != 0 {
		query = query.Where("pickup_point_id = ?", filter.PickupPointID)
	}
	if filter.ShopID != 0 {
		query = query.Where("id IN (?)", r.db.Model(&models.OrderChild{}).
			Select("order_id").Where("shop_id = ?", filter.ShopID))
	}
	if filter.OrderStatus != "" {
		query = query.Where("order_status = ?", filter.OrderStatus)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.TrackingNumber != "" {
		query = query.Where("tracking_number = ?", strings.TrimSpace(filter.TrackingNumber))
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at < ?", filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	query = query.Order(resolveOrderSort(filter.OrderBy, filter.SortDirection))

	var orders []models.Order
	if err := query.Preload("Children").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CountCreatedSince counts orders created on or after the given time.
func (r *GormOrderRepository) CountCreatedSince(since time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&models.Order{}).Where("created_at >= ?", since).Count(&total).Error
	return total, err
}

func resolveOrderSort(orderBy, direction string) string {
	column, ok := orderSortColumns[strings.ToLower(strings.TrimSpace(orderBy))]
	if !ok {
		column = "id"
	}
	if strings.EqualFold(direction, "asc") {
		return column + " asc"
	}
	return column + " desc"
}
