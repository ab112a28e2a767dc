package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/provider"
	"github.com/edoto/marketplace/internal/queue"
	"github.com/edoto/marketplace/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer handles the async queue tasks.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer.
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register attaches the handlers.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSettlementRetry, c.handleSettlementRetry)
	mux.HandleFunc(queue.TaskInvoiceGenerate, c.handleInvoiceGenerate)
	mux.HandleFunc(queue.TaskAnalyticsRefresh, c.handleAnalyticsRefresh)
	mux.HandleFunc(queue.TaskCampaignOTPNotify, c.handleCampaignOTPNotify)
}

func (c *Consumer) handleSettlementRetry(ctx context.Context, task *asynq.Task) error {
	var payload queue.SettlementRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_settlement_retry_unmarshal_failed", "error", err)
		return err
	}
	if payload.PendingPaymentID == 0 {
		logger.Debugw("worker_settlement_retry_skip_invalid_payload")
		return nil
	}
	if err := c.SettlementService.RetryPending(ctx, payload.PendingPaymentID); err != nil {
		// Bad rows are dropped; infrastructure failures go back to asynq.
		if errors.Is(err, service.ErrSettlementInvalid) {
			logger.Warnw("worker_settlement_retry_skip_invalid",
				"pending_payment_id", payload.PendingPaymentID,
				"error", err,
			)
			return nil
		}
		logger.Warnw("worker_settlement_retry_failed",
			"pending_payment_id", payload.PendingPaymentID,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleInvoiceGenerate(ctx context.Context, task *asynq.Task) error {
	var payload queue.InvoiceGeneratePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_invoice_generate_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_invoice_generate_skip_invalid_payload")
		return nil
	}
	if err := c.InvoiceService.GenerateForOrder(ctx, payload.OrderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			logger.Warnw("worker_invoice_generate_skip_order_missing", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_invoice_generate_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleAnalyticsRefresh(ctx context.Context, task *asynq.Task) error {
	_ = task
	if err := c.AnalyticsService.RecomputeAll(ctx); err != nil {
		logger.Warnw("worker_analytics_refresh_failed", "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleCampaignOTPNotify(_ context.Context, task *asynq.Task) error {
	var payload queue.CampaignOTPNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_campaign_otp_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.CampaignID == 0 || payload.Phone == "" {
		logger.Debugw("worker_campaign_otp_notify_skip_invalid_payload")
		return nil
	}
	if err := c.CampaignService.NotifyRegistrant(payload.CampaignID, payload.Phone); err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) || errors.Is(err, service.ErrCampaignRegNotFound) {
			logger.Warnw("worker_campaign_otp_notify_skip_missing",
				"campaign_id", payload.CampaignID,
				"error", err,
			)
			return nil
		}
		logger.Warnw("worker_campaign_otp_notify_failed",
			"campaign_id", payload.CampaignID,
			"error", err,
		)
		return err
	}
	return nil
}
