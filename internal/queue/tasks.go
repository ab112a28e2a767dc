package queue

import (
	"encoding/json"

	"github.com/edoto/marketplace/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSettlementRetry replays a pending payment through settlement.
	TaskSettlementRetry = constants.TaskSettlementRetry
	// TaskInvoiceGenerate backfills missing invoices for an order.
	TaskInvoiceGenerate = constants.TaskInvoiceGenerate
	// TaskAnalyticsRefresh triggers a full analytics recompute.
	TaskAnalyticsRefresh = constants.TaskAnalyticsRefresh
	// TaskCampaignOTPNotify mails a kit collection code to a registrant.
	TaskCampaignOTPNotify = constants.TaskCampaignOTPNotify
)

// SettlementRetryPayload identifies the pending payment row to replay.
type SettlementRetryPayload struct {
	PendingPaymentID uint `json:"pending_payment_id"`
}

// InvoiceGeneratePayload identifies the order to backfill.
type InvoiceGeneratePayload struct {
	OrderID uint `json:"order_id"`
}

// AnalyticsRefreshPayload is empty; the task recomputes everything.
type AnalyticsRefreshPayload struct{}

// CampaignOTPNotifyPayload identifies the registration to notify.
type CampaignOTPNotifyPayload struct {
	CampaignID uint   `json:"campaign_id"`
	Phone      string `json:"phone"`
}

// NewSettlementRetryTask creates a settlement replay task.
func NewSettlementRetryTask(payload SettlementRetryPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementRetry, body), nil
}

// NewInvoiceGenerateTask creates an invoice backfill task.
func NewInvoiceGenerateTask(payload InvoiceGeneratePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceGenerate, body), nil
}

// NewAnalyticsRefreshTask creates a recompute task.
func NewAnalyticsRefreshTask() (*asynq.Task, error) {
	body, err := json.Marshal(AnalyticsRefreshPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsRefresh, body), nil
}

// NewCampaignOTPNotifyTask creates a kit code notification task.
func NewCampaignOTPNotifyTask(payload CampaignOTPNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCampaignOTPNotify, body), nil
}
