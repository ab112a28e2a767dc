package repository

import (
	"errors"

	"github.com/edoto/marketplace/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository is the category data access interface.
type CategoryRepository interface {
	Create(category *models.Category) error
	GetByID(id uint) (*models.Category, error)
	ListAll() ([]models.Category, error)
}

// GormCategoryRepository is the GORM implementation.
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates the repository.
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

func (r *GormCategoryRepository) GetByID(id uint) (*models.Category, error) {
	if id == 0 {
		return nil, nil
	}
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *GormCategoryRepository) ListAll() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Order("id asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// PickupPointRepository is the pickup point data access interface.
type PickupPointRepository interface {
	Create(point *models.PickupPoint) error
	GetByID(id uint) (*models.PickupPoint, error)
	ListAll() ([]models.PickupPoint, error)
}

// GormPickupPointRepository is the GORM implementation.
type GormPickupPointRepository struct {
	db *gorm.DB
}

// NewPickupPointRepository creates the repository.
func NewPickupPointRepository(db *gorm.DB) *GormPickupPointRepository {
	return &GormPickupPointRepository{db: db}
}

func (r *GormPickupPointRepository) Create(point *models.PickupPoint) error {
	return r.db.Create(point).Error
}

func (r *GormPickupPointRepository) GetByID(id uint) (*models.PickupPoint, error) {
	if id == 0 {
		return nil, nil
	}
	var point models.PickupPoint
	if err := r.db.First(&point, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &point, nil
}

func (r *GormPickupPointRepository) ListAll() ([]models.PickupPoint, error) {
	var points []models.PickupPoint
	if err := r.db.Order("id asc").Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}
