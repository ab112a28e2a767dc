package admin

import (
	"strconv"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetAnalytics handles GET /admin/analytics.
func (h *Handler) GetAnalytics(c *gin.Context) {
	snapshot, err := h.AnalyticsService.GetGlobal()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "analytics fetch failed", err)
		return
	}
	response.Success(c, snapshot)
}

// GetShopAnalytics handles GET /admin/shops/:id/analytics. Store owners
// only see their own shop.
func (h *Handler) GetShopAnalytics(c *gin.Context) {
	user, ok := shared.GetUser(c)
	if !ok {
		return
	}
	shopID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || shopID == 0 {
		shared.RespondError(c, response.CodeBadRequest, "shop id invalid", err)
		return
	}

	shop, err := h.ShopService.GetShop(uint(shopID))
	if err != nil {
		shared.RespondError(c, response.CodeNotFound, "shop not found", err)
		return
	}
	if user.Role != constants.RoleSuperAdmin && shop.OwnerID != user.ID {
		response.Forbidden(c, "permission denied")
		return
	}

	snapshot, err := h.AnalyticsService.GetForShop(shop.ID)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "analytics fetch failed", err)
		return
	}
	response.Success(c, snapshot)
}
