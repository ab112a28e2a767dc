package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/queue"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type sweeperFixture struct {
	db  *gorm.DB
	svc *SweeperService
}

// setupSweeperTest wires a disabled queue client. Disabled enqueues succeed
// as no-ops, so the sweep counters still reflect row selection.
func setupSweeperTest(t *testing.T) *sweeperFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:sweeper_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PendingPayment{}, &models.PaymentIntent{}, &models.Invoice{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	svc := NewSweeperService(
		repository.NewPendingPaymentRepository(db),
		repository.NewPaymentIntentRepository(db),
		queueClient,
		config.SettlementConfig{RetryCap: 3, RetryGraceMinutes: 5},
	)
	return &sweeperFixture{db: db, svc: svc}
}

func (f *sweeperFixture) seedPending(t *testing.T, txn, status string, retryCount int, age time.Duration) *models.PendingPayment {
	t.Helper()
	pending := models.PendingPayment{
		TrackingNumber: "ORD-5-1000",
		TransactionID:  txn,
		Gateway:        constants.GatewayFlutterwave,
		Amount:         models.NewMoneyFromInt(5000),
		Currency:       constants.CurrencyDefault,
		Status:         status,
		RetryCount:     retryCount,
	}
	if err := f.db.Create(&pending).Error; err != nil {
		t.Fatalf("create pending failed: %v", err)
	}
	if age > 0 {
		past := time.Now().Add(-age)
		if err := f.db.Model(&models.PendingPayment{}).Where("id = ?", pending.ID).
			UpdateColumn("updated_at", past).Error; err != nil {
			t.Fatalf("backdate pending failed: %v", err)
		}
	}
	return &pending
}

func TestSweepPendingPaymentsSelectsStuckRows(t *testing.T) {
	f := setupSweeperTest(t)

	f.seedPending(t, "txn-stuck-processing", constants.PendingPaymentStatusProcessing, 0, time.Hour)
	f.seedPending(t, "txn-stuck-failed", constants.PendingPaymentStatusFailed, 1, time.Hour)
	// Not eligible: too fresh, done, exhausted, dead.
	f.seedPending(t, "txn-fresh", constants.PendingPaymentStatusFailed, 0, 0)
	f.seedPending(t, "txn-done", constants.PendingPaymentStatusCompleted, 0, time.Hour)
	f.seedPending(t, "txn-exhausted", constants.PendingPaymentStatusFailed, 3, time.Hour)
	f.seedPending(t, "txn-dead", constants.PendingPaymentStatusDead, 3, time.Hour)

	enqueued, err := f.svc.SweepPendingPayments()
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if enqueued != 2 {
		t.Fatalf("enqueued = %d, want 2", enqueued)
	}
}

func TestSweepMissingInvoicesDedupesByOrder(t *testing.T) {
	f := setupSweeperTest(t)

	intents := []models.PaymentIntent{
		{OrderID: 1, TrackingNumber: "ORD-1-1", PaymentGateway: constants.GatewayFlutterwave,
			TransactionRef: "FLW-1-1", Amount: models.NewMoneyFromInt(100),
			Currency: constants.CurrencyDefault, Status: constants.PaymentIntentStatusSuccess},
		// Second success intent for the same order must not double-enqueue.
		{OrderID: 1, TrackingNumber: "ORD-1-1", PaymentGateway: constants.GatewayFlutterwave,
			TransactionRef: "FLW-1-2", Amount: models.NewMoneyFromInt(100),
			Currency: constants.CurrencyDefault, Status: constants.PaymentIntentStatusSuccess},
		{OrderID: 2, TrackingNumber: "ORD-2-1", PaymentGateway: constants.GatewayPaystack,
			TransactionRef: "PSK-2-1", Amount: models.NewMoneyFromInt(200),
			Currency: constants.CurrencyDefault, Status: constants.PaymentIntentStatusSuccess},
		// Already invoiced and non-success intents stay out.
		{OrderID: 3, TrackingNumber: "ORD-3-1", PaymentGateway: constants.GatewayStripe,
			TransactionRef: "STR-3-1", Amount: models.NewMoneyFromInt(300),
			Currency: constants.CurrencyDefault, Status: constants.PaymentIntentStatusSuccess},
		{OrderID: 4, TrackingNumber: "ORD-4-1", PaymentGateway: constants.GatewayFlutterwave,
			TransactionRef: "FLW-4-1", Amount: models.NewMoneyFromInt(400),
			Currency: constants.CurrencyDefault, Status: constants.PaymentIntentStatusFailed},
	}
	for i := range intents {
		if err := f.db.Create(&intents[i]).Error; err != nil {
			t.Fatalf("create intent failed: %v", err)
		}
	}
	now := time.Now()
	invoice := models.Invoice{
		OrderID: 3, InvoiceNumber: "INV-ORD-3-1-CLIENT",
		Amount: models.NewMoneyFromInt(300), Currency: constants.CurrencyDefault,
		Status: constants.InvoiceStatusGenerated, GeneratedAt: &now,
	}
	if err := f.db.Create(&invoice).Error; err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}

	enqueued, err := f.svc.SweepMissingInvoices()
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if enqueued != 2 {
		t.Fatalf("enqueued = %d, want orders 1 and 2 only", enqueued)
	}
}

func TestSweeperWithoutQueueIsNoOp(t *testing.T) {
	f := setupSweeperTest(t)
	f.seedPending(t, "txn-stuck", constants.PendingPaymentStatusFailed, 0, time.Hour)

	svc := NewSweeperService(
		repository.NewPendingPaymentRepository(f.db),
		repository.NewPaymentIntentRepository(f.db),
		nil,
		config.SettlementConfig{},
	)
	if n, err := svc.SweepPendingPayments(); err != nil || n != 0 {
		t.Fatalf("pending sweep = (%d, %v), want no-op", n, err)
	}
	if n, err := svc.SweepMissingInvoices(); err != nil || n != 0 {
		t.Fatalf("invoice sweep = (%d, %v), want no-op", n, err)
	}
	if err := svc.EnqueueAnalyticsRefresh(); err != nil {
		t.Fatalf("analytics refresh = %v, want no-op", err)
	}
}
