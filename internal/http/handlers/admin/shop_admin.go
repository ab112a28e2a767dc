package admin

import (
	"errors"
	"strconv"

	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"
	"github.com/edoto/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

type createShopRequest struct {
	OwnerID     uint   `json:"owner_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
}

// CreateShop handles POST /admin/shops.
func (h *Handler) CreateShop(c *gin.Context) {
	var req createShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	shop, err := h.ShopService.CreateShop(service.CreateShopInput{
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShopInvalid):
			response.BadRequest(c, "shop input invalid")
		case errors.Is(err, service.ErrShopSlugTaken):
			response.Error(c, response.CodeConflict, "shop slug already taken")
		default:
			shared.RespondError(c, response.CodeInternal, "shop creation failed", err)
		}
		return
	}
	response.Success(c, shop)
}

// ListShops handles GET /admin/shops.
func (h *Handler) ListShops(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)
	ownerID, _ := strconv.ParseUint(c.Query("owner_id"), 10, 64)

	shops, total, err := h.ShopService.ListShops(repository.ShopListFilter{
		Page:     page,
		PageSize: pageSize,
		OwnerID:  uint(ownerID),
		Search:   c.Query("search"),
	})
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "shop listing failed", err)
		return
	}
	response.SuccessWithPage(c, shops, shared.BuildPagination(page, pageSize, total))
}

// ListWalletTransactions handles GET /admin/shops/:id/wallet.
func (h *Handler) ListWalletTransactions(c *gin.Context) {
	shopID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || shopID == 0 {
		shared.RespondError(c, response.CodeBadRequest, "shop id invalid", err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	txns, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		ShopID:   uint(shopID),
	})
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "wallet listing failed", err)
		return
	}
	response.SuccessWithPage(c, txns, shared.BuildPagination(page, pageSize, total))
}

type createProductRequest struct {
	ShopID     uint         `json:"shop_id" binding:"required"`
	CategoryID *uint        `json:"category_id"`
	Name       string       `json:"name" binding:"required"`
	Slug       string       `json:"slug" binding:"required"`
	Price      models.Money `json:"price"`
	SalePrice  models.Money `json:"sale_price"`
	Quantity   int          `json:"quantity"`
	Status     string       `json:"status"`
}

// CreateProduct handles POST /admin/products. Store owners may only
// create under their own shop.
func (h *Handler) CreateProduct(c *gin.Context) {
	user, ok := shared.GetUser(c)
	if !ok {
		return
	}
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	product, err := h.ProductService.CreateProduct(service.CreateProductInput{
		ShopID:     req.ShopID,
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Slug:       req.Slug,
		Price:      req.Price,
		SalePrice:  req.SalePrice,
		Quantity:   req.Quantity,
		Status:     req.Status,
	}, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuthPermissionDenied):
			response.Forbidden(c, "permission denied")
		case errors.Is(err, service.ErrShopNotFound):
			response.NotFound(c, "shop not found")
		case errors.Is(err, service.ErrOrderInvalid):
			response.BadRequest(c, "product input invalid")
		default:
			shared.RespondError(c, response.CodeInternal, "product creation failed", err)
		}
		return
	}
	response.Success(c, product)
}
