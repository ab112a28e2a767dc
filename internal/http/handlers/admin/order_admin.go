package admin

import (
	"errors"
	"strconv"

	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/repository"
	"github.com/edoto/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders handles GET /admin/orders.
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)
	shopID, _ := strconv.ParseUint(c.Query("shop_id"), 10, 64)
	customerID, _ := strconv.ParseUint(c.Query("customer_id"), 10, 64)

	orders, total, err := h.OrderService.GetOrders(repository.OrderListFilter{
		Page:           page,
		PageSize:       pageSize,
		ShopID:         uint(shopID),
		CustomerID:     uint(customerID),
		OrderStatus:    c.Query("order_status"),
		PaymentStatus:  c.Query("payment_status"),
		TrackingNumber: c.Query("tracking_number"),
		OrderBy:        c.Query("order_by"),
		SortDirection:  c.Query("sort"),
	}, nil)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "order listing failed", err)
		return
	}
	response.SuccessWithPage(c, orders, shared.BuildPagination(page, pageSize, total))
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PUT /admin/orders/:id/status.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		shared.RespondError(c, response.CodeBadRequest, "order id invalid", err)
		return
	}
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.OrderService.UpdateOrderStatus(uint(orderID), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFound(c, "order not found")
		case errors.Is(err, service.ErrOrderStatusInvalid):
			response.BadRequest(c, "order status invalid")
		default:
			shared.RespondError(c, response.CodeInternal, "order update failed", err)
		}
		return
	}
	response.Success(c, order)
}
