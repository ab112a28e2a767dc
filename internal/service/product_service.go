package service

import (
	"fmt"
	"strings"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"

	"gorm.io/gorm"
)

// ProductService covers the product surface checkout needs.
type ProductService struct {
	db          *gorm.DB
	productRepo *repository.GormProductRepository
	shopRepo    *repository.GormShopRepository
	shopSvc     *ShopService
}

// NewProductService creates the service.
func NewProductService(db *gorm.DB, productRepo *repository.GormProductRepository, shopRepo *repository.GormShopRepository, shopSvc *ShopService) *ProductService {
	return &ProductService{db: db, productRepo: productRepo, shopRepo: shopRepo, shopSvc: shopSvc}
}

// CreateProductInput is the store-owner create request.
type CreateProductInput struct {
	ShopID     uint
	CategoryID *uint
	Name       string
	Slug       string
	Price      models.Money
	SalePrice  models.Money
	Quantity   int
	Status     string
}

// CreateProduct records a product under the actor's shop.
func (s *ProductService) CreateProduct(input CreateProductInput, actor *models.User) (*models.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	if input.ShopID == 0 || input.Name == "" || input.Slug == "" {
		return nil, ErrOrderInvalid
	}
	if input.Price.Decimal.Sign() <= 0 || input.Quantity < 0 {
		return nil, ErrOrderInvalid
	}
	status := input.Status
	if status == "" {
		status = constants.ProductStatusPublished
	}

	shop, err := s.shopRepo.GetByID(input.ShopID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShopCreateFailed, err)
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	if err := s.shopSvc.AuthorizeOwner(shop, actor); err != nil {
		return nil, err
	}

	product := &models.Product{
		ShopID:     input.ShopID,
		CategoryID: input.CategoryID,
		Name:       input.Name,
		Slug:       input.Slug,
		Price:      input.Price,
		SalePrice:  input.SalePrice,
		Quantity:   input.Quantity,
		Status:     status,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.WithTx(tx).Create(product); err != nil {
			return fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
		}
		lockedShop, err := s.shopRepo.WithTx(tx).GetByIDForUpdate(input.ShopID)
		if err != nil || lockedShop == nil {
			return fmt.Errorf("%w: %v", ErrShopCreateFailed, err)
		}
		lockedShop.ProductsCount++
		return s.shopRepo.WithTx(tx).Update(lockedShop)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct loads one product by id.
func (s *ProductService) GetProduct(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListProducts pages through products. Public listings only see
// published rows.
func (s *ProductService) ListProducts(filter repository.ProductListFilter, actor *models.User) ([]models.Product, int64, error) {
	if actor == nil || actor.Role == constants.RoleClient {
		filter.Status = constants.ProductStatusPublished
	}
	return s.productRepo.List(filter)
}
