package public

import (
	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

type confirmPaymentRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
	Gateway        string `json:"gateway"`
	Reference      string `json:"reference" binding:"required"`
}

// ConfirmPayment handles POST /payments/confirm: the client reports a
// completed gateway payment and we verify server side before settling.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	result, err := h.SettlementService.ConfirmPayment(c.Request.Context(), service.ConfirmPaymentInput{
		TrackingNumber: req.TrackingNumber,
		Gateway:        req.Gateway,
		Reference:      req.Reference,
	})
	if err != nil {
		rules := concatMappedHandlerErrors(orderErrorRules, paymentErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "payment confirmation failed")
		return
	}
	payload := gin.H{
		"processed": result.Processed,
		"order_id":  result.OrderID,
	}
	if result.Err != "" {
		payload["error"] = result.Err
	}
	response.Success(c, payload)
}

type feexpayCompleteRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
	Reference      string `json:"reference" binding:"required"`
}

// FeexpayComplete handles POST /payments/feexpay/complete. The Feexpay
// SDK runs client side, so completion lands here instead of a webhook.
func (h *Handler) FeexpayComplete(c *gin.Context) {
	var req feexpayCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	result, err := h.SettlementService.ConfirmPayment(c.Request.Context(), service.ConfirmPaymentInput{
		TrackingNumber: req.TrackingNumber,
		Gateway:        constants.GatewayFeexpay,
		Reference:      req.Reference,
	})
	// The SDK caller cannot act on a hard error; every outcome is
	// acknowledged and failures are already recorded for the sweeper.
	if err != nil {
		shared.RequestLog(c).Warnw("feexpay_complete_failed",
			"tracking_number", req.TrackingNumber, "error", err)
		response.Success(c, gin.H{
			"processed": false,
			"error":     err.Error(),
		})
		return
	}
	payload := gin.H{
		"processed": result.Processed,
		"order_id":  result.OrderID,
	}
	if result.Err != "" {
		payload["error"] = result.Err
	}
	response.Success(c, payload)
}
