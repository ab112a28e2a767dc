package repository

import (
	"errors"
	"strings"

	"github.com/edoto/marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShopRepository is the shop data access interface.
type ShopRepository interface {
	Create(shop *models.Shop) error
	Update(shop *models.Shop) error
	GetByID(id uint) (*models.Shop, error)
	GetByIDForUpdate(id uint) (*models.Shop, error)
	GetBySlug(slug string) (*models.Shop, error)
	List(filter ShopListFilter) ([]models.Shop, int64, error)
	WithTx(tx *gorm.DB) *GormShopRepository
}

// GormShopRepository is the GORM implementation.
type GormShopRepository struct {
	db *gorm.DB
}

// NewShopRepository creates the repository.
func NewShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormShopRepository) WithTx(tx *gorm.DB) *GormShopRepository {
	if tx == nil {
		return r
	}
	return &GormShopRepository{db: tx}
}

// Create inserts a shop.
func (r *GormShopRepository) Create(shop *models.Shop) error {
	return r.db.Create(shop).Error
}

// Update saves a shop.
func (r *GormShopRepository) Update(shop *models.Shop) error {
	return r.db.Save(shop).Error
}

// GetByID fetches a shop by id, nil when absent.
func (r *GormShopRepository) GetByID(id uint) (*models.Shop, error) {
	if id == 0 {
		return nil, nil
	}
	var shop models.Shop
	if err := r.db.First(&shop, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// GetByIDForUpdate fetches a shop with a row lock.
func (r *GormShopRepository) GetByIDForUpdate(id uint) (*models.Shop, error) {
	if id == 0 {
		return nil, nil
	}
	var shop models.Shop
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&shop, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// GetBySlug fetches a shop by slug, nil when absent.
func (r *GormShopRepository) GetBySlug(slug string) (*models.Shop, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var shop models.Shop
	if err := r.db.Where("slug = ?", slug).First(&shop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// List pages through shops.
func (r *GormShopRepository) List(filter ShopListFilter) ([]models.Shop, int64, error) {
	query := r.db.Model(&models.Shop{})
	if filter.OwnerID != 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR slug LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var shops []models.Shop
	if err := query.Order("id desc").Find(&shops).Error; err != nil {
		return nil, 0, err
	}
	return shops, total, nil
}
