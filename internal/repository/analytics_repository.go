package repository

import (
	"errors"

	"github.com/edoto/marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalyticsRepository is the analytics snapshot data access interface.
// One row per shop plus a single global row with a NULL shop id.
type AnalyticsRepository interface {
	GetGlobal() (*models.Analytics, error)
	GetGlobalForUpdate() (*models.Analytics, error)
	GetByShopID(shopID uint) (*models.Analytics, error)
	GetByShopIDForUpdate(shopID uint) (*models.Analytics, error)
	Save(row *models.Analytics) error
	WithTx(tx *gorm.DB) *GormAnalyticsRepository
}

// GormAnalyticsRepository is the GORM implementation.
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates the repository.
func NewAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormAnalyticsRepository) WithTx(tx *gorm.DB) *GormAnalyticsRepository {
	if tx == nil {
		return r
	}
	return &GormAnalyticsRepository{db: tx}
}

// GetGlobal fetches the global snapshot row, nil when absent.
func (r *GormAnalyticsRepository) GetGlobal() (*models.Analytics, error) {
	return r.getByShop(nil, false)
}

// GetGlobalForUpdate fetches the global snapshot row with a row lock.
func (r *GormAnalyticsRepository) GetGlobalForUpdate() (*models.Analytics, error) {
	return r.getByShop(nil, true)
}

// GetByShopID fetches a shop snapshot row, nil when absent.
func (r *GormAnalyticsRepository) GetByShopID(shopID uint) (*models.Analytics, error) {
	if shopID == 0 {
		return nil, nil
	}
	return r.getByShop(&shopID, false)
}

// GetByShopIDForUpdate fetches a shop snapshot row with a row lock.
func (r *GormAnalyticsRepository) GetByShopIDForUpdate(shopID uint) (*models.Analytics, error) {
	if shopID == 0 {
		return nil, nil
	}
	return r.getByShop(&shopID, true)
}

func (r *GormAnalyticsRepository) getByShop(shopID *uint, lock bool) (*models.Analytics, error) {
	query := r.db
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if shopID == nil {
		query = query.Where("shop_id IS NULL")
	} else {
		query = query.Where("shop_id = ?", *shopID)
	}
	var row models.Analytics
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Save upserts a snapshot row.
func (r *GormAnalyticsRepository) Save(row *models.Analytics) error {
	return r.db.Save(row).Error
}
