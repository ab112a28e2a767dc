package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/repository"
	"github.com/edoto/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

type campaignRequest struct {
	Title       string     `json:"title" binding:"required"`
	Slug        string     `json:"slug" binding:"required"`
	Description string     `json:"description"`
	KitsTotal   int64      `json:"kits_total" binding:"required"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	IsActive    bool       `json:"is_active"`
}

// CreateCampaign handles POST /admin/campaigns.
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	campaign, err := h.CampaignService.CreateCampaign(service.CreateCampaignInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		KitsTotal:   req.KitsTotal,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		IsActive:    req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrCampaignInvalid) {
			response.BadRequest(c, "campaign input invalid")
			return
		}
		shared.RespondError(c, response.CodeInternal, "campaign creation failed", err)
		return
	}
	response.Success(c, campaign)
}

// UpdateCampaign handles PUT /admin/campaigns/:id.
func (h *Handler) UpdateCampaign(c *gin.Context) {
	campaignID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || campaignID == 0 {
		shared.RespondError(c, response.CodeBadRequest, "campaign id invalid", err)
		return
	}
	campaign, err := h.CampaignService.GetCampaign(uint(campaignID))
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			response.NotFound(c, "campaign not found")
			return
		}
		shared.RespondError(c, response.CodeInternal, "campaign fetch failed", err)
		return
	}

	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	campaign.Title = req.Title
	campaign.Slug = req.Slug
	campaign.Description = req.Description
	campaign.KitsTotal = req.KitsTotal
	campaign.StartsAt = req.StartsAt
	campaign.EndsAt = req.EndsAt
	campaign.IsActive = req.IsActive

	if err := h.CampaignService.UpdateCampaign(campaign); err != nil {
		shared.RespondError(c, response.CodeInternal, "campaign update failed", err)
		return
	}
	response.Success(c, campaign)
}

// ListCampaigns handles GET /admin/campaigns.
func (h *Handler) ListCampaigns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	campaigns, total, err := h.CampaignService.ListCampaigns(repository.CampaignListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
	})
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "campaign listing failed", err)
		return
	}
	response.SuccessWithPage(c, campaigns, shared.BuildPagination(page, pageSize, total))
}
