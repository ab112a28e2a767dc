package public

import (
	"errors"
	"io"
	"net/http"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// FlutterwaveWebhook handles POST /webhooks/flutterwave.
func (h *Handler) FlutterwaveWebhook(c *gin.Context) {
	h.handleWebhook(c, constants.GatewayFlutterwave, c.GetHeader("verif-hash"))
}

// PaystackWebhook handles POST /webhooks/paystack.
func (h *Handler) PaystackWebhook(c *gin.Context) {
	h.handleWebhook(c, constants.GatewayPaystack, c.GetHeader("x-paystack-signature"))
}

// StripeWebhook handles POST /webhooks/stripe.
func (h *Handler) StripeWebhook(c *gin.Context) {
	h.handleWebhook(c, constants.GatewayStripe, c.GetHeader("Stripe-Signature"))
}

// handleWebhook rejects unauthenticated calls with a real 403; everything
// past the signature check is acknowledged. Providers retry on non-200 and
// a rejected notification must not turn into a retry storm; failures are
// logged and the sweeper picks up anything real that was dropped.
func (h *Handler) handleWebhook(c *gin.Context, gateway, signature string) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		shared.RequestLog(c).Warnw("webhook_body_read_failed", "gateway", gateway, "error", err)
		response.Success(c, gin.H{"received": true})
		return
	}

	result, err := h.SettlementService.HandleWebhook(c.Request.Context(), service.WebhookInput{
		Gateway:   gateway,
		Signature: signature,
		Body:      body,
	})
	if errors.Is(err, service.ErrWebhookSignatureInvalid) {
		shared.RequestLog(c).Warnw("webhook_signature_rejected", "gateway", gateway)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"received": false, "msg": "invalid signature"})
		return
	}
	if err != nil {
		shared.RequestLog(c).Warnw("webhook_processing_failed", "gateway", gateway, "error", err)
		response.Success(c, gin.H{"received": true})
		return
	}
	response.Success(c, gin.H{
		"received":  true,
		"processed": result.Processed,
	})
}
