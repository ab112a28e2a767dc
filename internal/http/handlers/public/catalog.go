package public

import (
	"strconv"

	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListProducts handles GET /products.
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)
	shopID, _ := strconv.ParseUint(c.Query("shop_id"), 10, 64)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)

	products, total, err := h.ProductService.ListProducts(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		ShopID:     uint(shopID),
		CategoryID: uint(categoryID),
		Search:     c.Query("search"),
	}, nil)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "product listing failed", err)
		return
	}
	response.SuccessWithPage(c, products, shared.BuildPagination(page, pageSize, total))
}

// ListShops handles GET /shops.
func (h *Handler) ListShops(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	shops, total, err := h.ShopService.ListShops(repository.ShopListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     c.Query("search"),
		OnlyActive: true,
	})
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "shop listing failed", err)
		return
	}
	response.SuccessWithPage(c, shops, shared.BuildPagination(page, pageSize, total))
}

// ListCampaigns handles GET /campaigns.
func (h *Handler) ListCampaigns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	campaigns, total, err := h.CampaignService.ListCampaigns(repository.CampaignListFilter{
		Page:       page,
		PageSize:   pageSize,
		OnlyActive: true,
		Search:     c.Query("search"),
	})
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "campaign listing failed", err)
		return
	}
	response.SuccessWithPage(c, campaigns, shared.BuildPagination(page, pageSize, total))
}
