package admin

import (
	"strconv"

	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/gin-gonic/gin"
)

// TriggerPendingSweep handles POST /admin/sweeps/pending-payments.
func (h *Handler) TriggerPendingSweep(c *gin.Context) {
	enqueued, err := h.SweeperService.SweepPendingPayments()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "sweep failed", err)
		return
	}
	response.Success(c, gin.H{"enqueued": enqueued})
}

// TriggerInvoiceSweep handles POST /admin/sweeps/invoices.
func (h *Handler) TriggerInvoiceSweep(c *gin.Context) {
	enqueued, err := h.SweeperService.SweepMissingInvoices()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "sweep failed", err)
		return
	}
	response.Success(c, gin.H{"enqueued": enqueued})
}

// TriggerAnalyticsRefresh handles POST /admin/sweeps/analytics.
func (h *Handler) TriggerAnalyticsRefresh(c *gin.Context) {
	if err := h.SweeperService.EnqueueAnalyticsRefresh(); err != nil {
		shared.RespondError(c, response.CodeInternal, "refresh enqueue failed", err)
		return
	}
	response.Success(c, gin.H{"enqueued": true})
}

// ListPendingPayments handles GET /admin/pending-payments.
func (h *Handler) ListPendingPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.PendingPaymentListFilter{
		Page:           page,
		PageSize:       pageSize,
		Gateway:        c.Query("gateway"),
		TrackingNumber: c.Query("tracking_number"),
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []string{status}
	}
	rows, total, err := h.PendingPaymentRepo.List(filter)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "pending payment listing failed", err)
		return
	}
	response.SuccessWithPage(c, rows, shared.BuildPagination(page, pageSize, total))
}
