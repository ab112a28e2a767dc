package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPendingPaymentRepositoryTest(t *testing.T) (*GormPendingPaymentRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:pending_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PendingPayment{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewPendingPaymentRepository(db), db
}

func TestPendingPaymentRepositoryNaturalKeyLookup(t *testing.T) {
	repo, _ := setupPendingPaymentRepositoryTest(t)

	pending := models.PendingPayment{
		TrackingNumber: "ORD-1-1000",
		TransactionID:  "txn-abc",
		Gateway:        constants.GatewayFlutterwave,
		Amount:         models.NewMoneyFromInt(5000),
		Currency:       constants.CurrencyDefault,
		Status:         constants.PendingPaymentStatusProcessing,
	}
	if err := repo.Create(&pending); err != nil {
		t.Fatalf("create pending payment failed: %v", err)
	}

	got, err := repo.GetByTrackingAndTransaction("ORD-1-1000", "txn-abc")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil || got.ID != pending.ID {
		t.Fatalf("expected row id=%d got %+v", pending.ID, got)
	}

	missing, err := repo.GetByTrackingAndTransaction("ORD-1-1000", "txn-other")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown transaction id, got %+v", missing)
	}

	duplicate := models.PendingPayment{
		TrackingNumber: "ORD-1-1000",
		TransactionID:  "txn-abc",
		Gateway:        constants.GatewayFlutterwave,
		Amount:         models.NewMoneyFromInt(5000),
		Currency:       constants.CurrencyDefault,
		Status:         constants.PendingPaymentStatusProcessing,
	}
	if err := repo.Create(&duplicate); err == nil {
		t.Fatalf("expected unique constraint violation on duplicate natural key")
	}
}

func TestPendingPaymentRepositoryListRetryable(t *testing.T) {
	repo, db := setupPendingPaymentRepositoryTest(t)
	old := time.Now().Add(-time.Hour)

	rows := []models.PendingPayment{
		{TrackingNumber: "ORD-1-1", TransactionID: "t1", Status: constants.PendingPaymentStatusFailed, RetryCount: 2},
		{TrackingNumber: "ORD-2-2", TransactionID: "t2", Status: constants.PendingPaymentStatusProcessing, RetryCount: 0},
		{TrackingNumber: "ORD-3-3", TransactionID: "t3", Status: constants.PendingPaymentStatusCompleted, RetryCount: 0},
		{TrackingNumber: "ORD-4-4", TransactionID: "t4", Status: constants.PendingPaymentStatusFailed, RetryCount: constants.SettlementRetryCap},
		{TrackingNumber: "ORD-5-5", TransactionID: "t5", Status: constants.PendingPaymentStatusDead, RetryCount: constants.SettlementRetryCap},
	}
	for i := range rows {
		if err := repo.Create(&rows[i]); err != nil {
			t.Fatalf("create row %d failed: %v", i, err)
		}
	}
	// Age the rows past the grace window. AutoMigrate timestamps are "now",
	// so push updated_at back directly.
	if err := db.Model(&models.PendingPayment{}).Where("1 = 1").
		Update("updated_at", old).Error; err != nil {
		t.Fatalf("age rows failed: %v", err)
	}

	got, err := repo.ListRetryable(10*time.Minute, constants.SettlementRetryCap, 50)
	if err != nil {
		t.Fatalf("list retryable failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("retryable len want 2 got %d", len(got))
	}
	for _, row := range got {
		if row.Status == constants.PendingPaymentStatusCompleted ||
			row.Status == constants.PendingPaymentStatusDead {
			t.Fatalf("unexpected status %s in retryable set", row.Status)
		}
		if row.RetryCount >= constants.SettlementRetryCap {
			t.Fatalf("row past retry cap selected: %+v", row)
		}
	}

	fresh := models.PendingPayment{TrackingNumber: "ORD-6-6", TransactionID: "t6", Status: constants.PendingPaymentStatusFailed}
	if err := repo.Create(&fresh); err != nil {
		t.Fatalf("create fresh row failed: %v", err)
	}
	got, err = repo.ListRetryable(10*time.Minute, constants.SettlementRetryCap, 50)
	if err != nil {
		t.Fatalf("list retryable failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("fresh row inside grace window must not be selected, len=%d", len(got))
	}
}

func TestPendingPaymentRepositoryIncrementRetryCapsAtDead(t *testing.T) {
	repo, _ := setupPendingPaymentRepositoryTest(t)

	pending := models.PendingPayment{
		TrackingNumber: "ORD-9-9",
		TransactionID:  "t9",
		Status:         constants.PendingPaymentStatusProcessing,
	}
	if err := repo.Create(&pending); err != nil {
		t.Fatalf("create pending payment failed: %v", err)
	}

	for i := 1; i <= constants.SettlementRetryCap; i++ {
		dead, err := repo.IncrementRetry(pending.ID, "gateway timeout", constants.SettlementRetryCap)
		if err != nil {
			t.Fatalf("increment retry %d failed: %v", i, err)
		}
		wantDead := i == constants.SettlementRetryCap
		if dead != wantDead {
			t.Fatalf("retry %d dead want %v got %v", i, wantDead, dead)
		}
	}

	got, err := repo.GetByID(pending.ID)
	if err != nil {
		t.Fatalf("get pending failed: %v", err)
	}
	if got.RetryCount != constants.SettlementRetryCap {
		t.Fatalf("retry_count want %d got %d", constants.SettlementRetryCap, got.RetryCount)
	}
	if got.Status != constants.PendingPaymentStatusDead {
		t.Fatalf("status want dead got %s", got.Status)
	}
	if got.RetriedAt == nil {
		t.Fatalf("retried_at must be set")
	}
}
