package service

import (
	"time"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/queue"
	"github.com/edoto/marketplace/internal/repository"
)

const sweepBatchSize = 100

// SweeperService finds work the pipeline dropped on the floor: stuck
// pending payments and settled orders without invoices.
type SweeperService struct {
	pendingRepo   *repository.GormPendingPaymentRepository
	intentRepo    *repository.GormPaymentIntentRepository
	queueClient   *queue.Client
	settlementCfg config.SettlementConfig
}

// NewSweeperService creates the service.
func NewSweeperService(pendingRepo *repository.GormPendingPaymentRepository, intentRepo *repository.GormPaymentIntentRepository, queueClient *queue.Client, settlementCfg config.SettlementConfig) *SweeperService {
	return &SweeperService{
		pendingRepo:   pendingRepo,
		intentRepo:    intentRepo,
		queueClient:   queueClient,
		settlementCfg: settlementCfg,
	}
}

// SweepPendingPayments enqueues a retry for each stuck pending row.
// Returns how many were enqueued.
func (s *SweeperService) SweepPendingPayments() (int, error) {
	if s.queueClient == nil {
		return 0, nil
	}
	rows, err := s.pendingRepo.ListRetryable(s.retryGrace(), s.retryCap(), sweepBatchSize)
	if err != nil {
		return 0, err
	}
	enqueued := 0
	for _, row := range rows {
		if err := s.queueClient.EnqueueSettlementRetry(queue.SettlementRetryPayload{
			PendingPaymentID: row.ID,
		}); err != nil {
			logger.S().Warnw("pending_sweep_enqueue_failed",
				"pending_payment_id", row.ID,
				"error", err,
			)
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		logger.S().Infow("pending_sweep_done", "enqueued", enqueued, "scanned", len(rows))
	}
	return enqueued, nil
}

// SweepMissingInvoices enqueues invoice generation for settled orders
// that still have no invoice rows.
func (s *SweeperService) SweepMissingInvoices() (int, error) {
	if s.queueClient == nil {
		return 0, nil
	}
	intents, err := s.intentRepo.ListSuccessWithoutInvoice(sweepBatchSize)
	if err != nil {
		return 0, err
	}
	enqueued := 0
	seen := make(map[uint]bool, len(intents))
	for _, intent := range intents {
		if seen[intent.OrderID] {
			continue
		}
		seen[intent.OrderID] = true
		if err := s.queueClient.EnqueueInvoiceGenerate(queue.InvoiceGeneratePayload{
			OrderID: intent.OrderID,
		}); err != nil {
			logger.S().Warnw("invoice_sweep_enqueue_failed",
				"order_id", intent.OrderID,
				"error", err,
			)
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		logger.S().Infow("invoice_sweep_done", "enqueued", enqueued)
	}
	return enqueued, nil
}

// EnqueueAnalyticsRefresh schedules a full recompute.
func (s *SweeperService) EnqueueAnalyticsRefresh() error {
	if s.queueClient == nil {
		return nil
	}
	return s.queueClient.EnqueueAnalyticsRefresh()
}

func (s *SweeperService) retryGrace() time.Duration {
	if s.settlementCfg.RetryGraceMinutes > 0 {
		return time.Duration(s.settlementCfg.RetryGraceMinutes) * time.Minute
	}
	return 5 * time.Minute
}

func (s *SweeperService) retryCap() int {
	if s.settlementCfg.RetryCap > 0 {
		return s.settlementCfg.RetryCap
	}
	return constants.SettlementRetryCap
}
