package public

import (
	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

type campaignRegisterRequest struct {
	CampaignID uint   `json:"campaign_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Email      string `json:"email"`
}

// CampaignRegister handles POST /campaigns/register.
func (h *Handler) CampaignRegister(c *gin.Context) {
	var req campaignRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	result, err := h.CampaignService.Register(service.RegisterInput{
		CampaignID: req.CampaignID,
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
	})
	if err != nil {
		respondWithMappedError(c, err, campaignErrorRules, response.CodeInternal, "registration failed")
		return
	}
	// The code itself goes out by mail, never in the response.
	response.Success(c, gin.H{
		"registration_id": result.Registration.ID,
		"campaign_id":     result.Registration.CampaignID,
	})
}

type verifyKitOTPRequest struct {
	CampaignID uint   `json:"campaign_id" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Code       string `json:"code" binding:"required"`
}

// CampaignVerifyKitOTP handles POST /campaigns/verify-kit-otp.
func (h *Handler) CampaignVerifyKitOTP(c *gin.Context) {
	var req verifyKitOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	reg, err := h.CampaignService.VerifyKitOTP(service.VerifyKitOTPInput{
		CampaignID: req.CampaignID,
		Phone:      req.Phone,
		Code:       req.Code,
	})
	if err != nil {
		rules := concatMappedHandlerErrors(otpErrorRules, campaignErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "verification failed")
		return
	}
	response.Success(c, reg)
}
