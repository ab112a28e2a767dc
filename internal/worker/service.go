package worker

import (
	"context"
	"errors"
	"time"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/queue"

	"github.com/hibiken/asynq"
)

// Service runs the asynq server plus the periodic sweep loops.
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService creates the queue service.
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name reports the service name.
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start runs the server and the sweep loops until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.SweeperService != nil {
		go s.runPendingSweepLoop(ctx)
		go s.runInvoiceSweepLoop(ctx)
		go s.runAnalyticsRefreshLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop shuts the server down.
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runPendingSweepLoop(ctx context.Context) {
	interval := minutesOr(s.settlementCfg().SweepIntervalMinutes, 1)
	s.runLoop(ctx, interval, func() {
		if _, err := s.consumer.SweeperService.SweepPendingPayments(); err != nil {
			logger.Warnw("worker_pending_sweep_failed", "error", err)
		}
	})
}

func (s *Service) runInvoiceSweepLoop(ctx context.Context) {
	interval := minutesOr(s.settlementCfg().InvoiceSweepMinutes, 5)
	s.runLoop(ctx, interval, func() {
		if _, err := s.consumer.SweeperService.SweepMissingInvoices(); err != nil {
			logger.Warnw("worker_invoice_sweep_failed", "error", err)
		}
	})
}

func (s *Service) runAnalyticsRefreshLoop(ctx context.Context) {
	interval := minutesOr(s.settlementCfg().AnalyticsRefreshMinutes, 60)
	s.runLoop(ctx, interval, func() {
		if err := s.consumer.SweeperService.EnqueueAnalyticsRefresh(); err != nil {
			logger.Warnw("worker_analytics_refresh_enqueue_failed", "error", err)
		}
	})
}

func (s *Service) runLoop(ctx context.Context, interval time.Duration, runOnce func()) {
	runOnce()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func (s *Service) settlementCfg() config.SettlementConfig {
	if s.consumer != nil && s.consumer.Config != nil {
		return s.consumer.Config.Settlement
	}
	return config.SettlementConfig{}
}

func minutesOr(minutes, fallback int) time.Duration {
	if minutes <= 0 {
		minutes = fallback
	}
	return time.Duration(minutes) * time.Minute
}
