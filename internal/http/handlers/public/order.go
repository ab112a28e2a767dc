package public

import (
	"strconv"

	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"
	"github.com/edoto/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	PickupPointID   *uint                      `json:"pickup_point_id"`
	PaymentGateway  string                     `json:"payment_gateway" binding:"required"`
	CustomerContact string                     `json:"customer_contact"`
	CustomerName    string                     `json:"customer_name"`
	SalesTax        models.Money               `json:"sales_tax"`
	Items           []service.OrderItemInput   `json:"items" binding:"required"`
}

// CreateOrder handles POST /orders.
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.OrderService.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		CustomerID:      userID,
		CustomerContact: req.CustomerContact,
		CustomerName:    req.CustomerName,
		PickupPointID:   req.PickupPointID,
		PaymentGateway:  req.PaymentGateway,
		SalesTax:        req.SalesTax,
		Items:           req.Items,
	})
	if err != nil {
		if order != nil {
			// Gateway init failed but the order exists; hand it back so the
			// client can retry payment.
			response.ErrorWithData(c, response.CodeInternal, "payment initialization failed", gin.H{"order": order})
			return
		}
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order creation failed")
		return
	}
	response.Success(c, order)
}

// MyOrders handles GET /orders.
func (h *Handler) MyOrders(c *gin.Context) {
	user, ok := shared.GetUser(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.GetOrders(repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		OrderStatus:   c.Query("order_status"),
		PaymentStatus: c.Query("payment_status"),
		OrderBy:       c.Query("order_by"),
		SortDirection: c.Query("sort"),
	}, user)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order listing failed")
		return
	}
	response.SuccessWithPage(c, orders, shared.BuildPagination(page, pageSize, total))
}

// GetOrder handles GET /orders/:id.
func (h *Handler) GetOrder(c *gin.Context) {
	user, ok := shared.GetUser(c)
	if !ok {
		return
	}
	param := c.Param("id")
	var (
		order *models.Order
		err   error
	)
	if id, convErr := strconv.ParseUint(param, 10, 64); convErr == nil {
		order, err = h.OrderService.GetOrder(uint(id), user)
	} else {
		order, err = h.OrderService.GetOrderByTracking(param, user)
	}
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order fetch failed")
		return
	}
	response.Success(c, order)
}
