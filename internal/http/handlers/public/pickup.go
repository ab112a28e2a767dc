package public

import (
	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

type verifyOTPRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
	Code           string `json:"code" binding:"required"`
}

// VerifyPickupOTP handles POST /pickup/orders/verify-otp. The pickup
// point agent keys in the client's code to hand the order over.
func (h *Handler) VerifyPickupOTP(c *gin.Context) {
	userID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.SettlementService.VerifyOTP(service.VerifyOTPInput{
		TrackingNumber: req.TrackingNumber,
		Code:           req.Code,
		ActorUserID:    userID,
	})
	if err != nil {
		rules := concatMappedHandlerErrors(otpErrorRules, orderErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "verification failed")
		return
	}
	response.Success(c, order)
}
