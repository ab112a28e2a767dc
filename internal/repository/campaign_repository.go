package repository

import (
	"errors"
	"strings"

	"github.com/edoto/marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignRepository is the campaign data access interface.
type CampaignRepository interface {
	Create(campaign *models.Campaign) error
	Update(campaign *models.Campaign) error
	GetByID(id uint) (*models.Campaign, error)
	GetByIDForUpdate(id uint) (*models.Campaign, error)
	GetBySlug(slug string) (*models.Campaign, error)
	List(filter CampaignListFilter) ([]models.Campaign, int64, error)
	CreateRegistration(reg *models.CampaignRegistration) error
	UpdateRegistration(reg *models.CampaignRegistration) error
	GetRegistration(campaignID uint, phone string) (*models.CampaignRegistration, error)
	WithTx(tx *gorm.DB) *GormCampaignRepository
}

// GormCampaignRepository is the GORM implementation.
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates the repository.
func NewCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormCampaignRepository) WithTx(tx *gorm.DB) *GormCampaignRepository {
	if tx == nil {
		return r
	}
	return &GormCampaignRepository{db: tx}
}

// Create inserts a campaign.
func (r *GormCampaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

// Update saves a campaign.
func (r *GormCampaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Save(campaign).Error
}

// GetByID fetches a campaign, nil when absent.
func (r *GormCampaignRepository) GetByID(id uint) (*models.Campaign, error) {
	if id == 0 {
		return nil, nil
	}
	var campaign models.Campaign
	if err := r.db.First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// GetByIDForUpdate fetches a campaign with a row lock. Kit counters move
// under this lock.
func (r *GormCampaignRepository) GetByIDForUpdate(id uint) (*models.Campaign, error) {
	if id == 0 {
		return nil, nil
	}
	var campaign models.Campaign
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// GetBySlug fetches a campaign by slug, nil when absent.
func (r *GormCampaignRepository) GetBySlug(slug string) (*models.Campaign, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var campaign models.Campaign
	if err := r.db.Where("slug = ?", slug).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// List pages through campaigns.
func (r *GormCampaignRepository) List(filter CampaignListFilter) ([]models.Campaign, int64, error) {
	query := r.db.Model(&models.Campaign{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var campaigns []models.Campaign
	if err := query.Order("id desc").Find(&campaigns).Error; err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// CreateRegistration inserts a campaign registration.
func (r *GormCampaignRepository) CreateRegistration(reg *models.CampaignRegistration) error {
	return r.db.Create(reg).Error
}

// UpdateRegistration saves a campaign registration.
func (r *GormCampaignRepository) UpdateRegistration(reg *models.CampaignRegistration) error {
	return r.db.Save(reg).Error
}

// GetRegistration fetches a registration by campaign and phone, nil when absent.
func (r *GormCampaignRepository) GetRegistration(campaignID uint, phone string) (*models.CampaignRegistration, error) {
	phone = strings.TrimSpace(phone)
	if campaignID == 0 || phone == "" {
		return nil, nil
	}
	var reg models.CampaignRegistration
	if err := r.db.Where("campaign_id = ? AND phone = ?", campaignID, phone).
		First(&reg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}
