package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/logger"

	"github.com/segmentio/kafka-go"
)

// SettlementEvent is the message published after a settlement commits.
type SettlementEvent struct {
	TrackingNumber string    `json:"tracking_number"`
	TransactionID  string    `json:"transaction_id"`
	Gateway        string    `json:"gateway"`
	Amount         string    `json:"amount"`
	Currency       string    `json:"currency"`
	OrderID        uint      `json:"order_id"`
	SettledAt      time.Time `json:"settled_at"`
}

// Publisher pushes settlement events to Kafka. Disabled when no brokers
// are configured; publishing is best effort either way.
type Publisher struct {
	writer  *kafka.Writer
	enabled bool
}

// NewPublisher creates the publisher from configuration.
func NewPublisher(cfg config.EventsConfig) *Publisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 || strings.TrimSpace(cfg.Topic) == "" {
		return &Publisher{}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        strings.TrimSpace(cfg.Topic),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Publisher{writer: writer, enabled: true}
}

// Enabled reports whether events will actually be written.
func (p *Publisher) Enabled() bool {
	return p != nil && p.enabled
}

// PublishSettlement writes one settlement event keyed by tracking number.
func (p *Publisher) PublishSettlement(ctx context.Context, event SettlementEvent) error {
	if !p.Enabled() {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TrackingNumber),
		Value: payload,
	})
	if err != nil {
		logger.S().Warnw("settlement_event_publish_failed",
			"tracking_number", event.TrackingNumber,
			"error", err,
		)
		return err
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.writer.Close()
}
