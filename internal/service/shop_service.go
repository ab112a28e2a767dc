package service

import (
	"fmt"
	"strings"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"
)

// ShopService covers the shop surface checkout and settlement need.
type ShopService struct {
	shopRepo *repository.GormShopRepository
	userRepo *repository.GormUserRepository
}

// NewShopService creates the service.
func NewShopService(shopRepo *repository.GormShopRepository, userRepo *repository.GormUserRepository) *ShopService {
	return &ShopService{shopRepo: shopRepo, userRepo: userRepo}
}

// CreateShopInput is the store-owner create request.
type CreateShopInput struct {
	OwnerID     uint
	Name        string
	Slug        string
	Description string
}

// CreateShop records a new shop with a zeroed wallet.
func (s *ShopService) CreateShop(input CreateShopInput) (*models.Shop, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	if input.OwnerID == 0 || input.Name == "" || input.Slug == "" {
		return nil, ErrShopInvalid
	}

	owner, err := s.userRepo.GetByID(input.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShopCreateFailed, err)
	}
	if owner == nil || owner.Role != constants.RoleStoreOwner {
		return nil, ErrShopInvalid
	}

	existing, err := s.shopRepo.GetBySlug(input.Slug)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShopCreateFailed, err)
	}
	if existing != nil {
		return nil, ErrShopSlugTaken
	}

	shop := &models.Shop{
		OwnerID:     input.OwnerID,
		Name:        input.Name,
		Slug:        input.Slug,
		Description: input.Description,
		IsActive:    true,
	}
	if err := s.shopRepo.Create(shop); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShopCreateFailed, err)
	}

	logger.S().Infow("shop_created", "shop_id", shop.ID, "owner_id", shop.OwnerID)
	return shop, nil
}

// GetShop loads one shop by id.
func (s *ShopService) GetShop(id uint) (*models.Shop, error) {
	shop, err := s.shopRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShopCreateFailed, err)
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	return shop, nil
}

// GetShopBySlug loads one shop by slug.
func (s *ShopService) GetShopBySlug(slug string) (*models.Shop, error) {
	shop, err := s.shopRepo.GetBySlug(strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShopCreateFailed, err)
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	return shop, nil
}

// ListShops pages through shops.
func (s *ShopService) ListShops(filter repository.ShopListFilter) ([]models.Shop, int64, error) {
	return s.shopRepo.List(filter)
}

// AuthorizeOwner checks that the actor owns the shop or is an admin.
func (s *ShopService) AuthorizeOwner(shop *models.Shop, actor *models.User) error {
	if actor == nil || shop == nil {
		return ErrAuthPermissionDenied
	}
	if actor.Role == constants.RoleSuperAdmin {
		return nil
	}
	if actor.Role == constants.RoleStoreOwner && shop.OwnerID == actor.ID {
		return nil
	}
	return ErrAuthPermissionDenied
}
