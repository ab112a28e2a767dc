package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"

	"github.com/shopspring/decimal"
)

func signFlutterwave(body []byte) string {
	mac := hmac.New(sha256.New, []byte("flw-webhook-secret"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func signPaystack(body []byte) string {
	mac := hmac.New(sha512.New, []byte("sk_test_paystack"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHandleWebhookFlutterwaveSettles(t *testing.T) {
	f := setupSettlementTest(t)
	order := f.seedSettlementOrder(t)

	body := []byte(fmt.Sprintf(
		`{"event":"charge.completed","data":{"id":777001,"tx_ref":%q,"status":"successful","amount":5000,"currency":"XOF"}}`,
		order.TrackingNumber,
	))
	result, err := f.svc.HandleWebhook(context.Background(), WebhookInput{
		Gateway:   constants.GatewayFlutterwave,
		Signature: signFlutterwave(body),
		Body:      body,
	})
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if !result.Processed {
		t.Fatalf("expected settlement, got %+v", result)
	}

	got, err := f.orderRepo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if got.PaymentStatus != constants.PaymentStatusSuccess {
		t.Fatalf("payment_status want success got %s", got.PaymentStatus)
	}

	pending, err := f.pendingRepo.GetByTrackingAndTransaction(order.TrackingNumber, "777001")
	if err != nil || pending == nil {
		t.Fatalf("checkpoint by provider transaction id missing: %v", err)
	}
	if pending.Status != constants.PendingPaymentStatusCompleted {
		t.Fatalf("pending status want completed got %s", pending.Status)
	}
}

func TestHandleWebhookBadSignatureRejected(t *testing.T) {
	f := setupSettlementTest(t)
	order := f.seedSettlementOrder(t)

	body := []byte(fmt.Sprintf(
		`{"event":"charge.completed","data":{"id":777002,"tx_ref":%q,"status":"successful","amount":5000,"currency":"XOF"}}`,
		order.TrackingNumber,
	))
	_, err := f.svc.HandleWebhook(context.Background(), WebhookInput{
		Gateway:   constants.GatewayFlutterwave,
		Signature: "deadbeef",
		Body:      body,
	})
	if !errors.Is(err, ErrWebhookSignatureInvalid) {
		t.Fatalf("want ErrWebhookSignatureInvalid got %v", err)
	}

	got, _ := f.orderRepo.GetByID(order.ID)
	if got.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("forged webhook must not settle, payment_status=%s", got.PaymentStatus)
	}
	var pendingCount int64
	f.db.Model(&models.PendingPayment{}).Count(&pendingCount)
	if pendingCount != 0 {
		t.Fatalf("forged webhook must not checkpoint, rows=%d", pendingCount)
	}
}

func TestHandleWebhookIgnorableEvent(t *testing.T) {
	f := setupSettlementTest(t)
	order := f.seedSettlementOrder(t)

	body := []byte(fmt.Sprintf(
		`{"event":"charge.completed","data":{"id":777003,"tx_ref":%q,"status":"failed","amount":5000,"currency":"XOF"}}`,
		order.TrackingNumber,
	))
	result, err := f.svc.HandleWebhook(context.Background(), WebhookInput{
		Gateway:   constants.GatewayFlutterwave,
		Signature: signFlutterwave(body),
		Body:      body,
	})
	if err != nil {
		t.Fatalf("ignorable event must not error: %v", err)
	}
	if result.Processed {
		t.Fatalf("failed charge must not settle")
	}

	got, _ := f.orderRepo.GetByID(order.ID)
	if got.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("order moved on an ignorable event: %s", got.PaymentStatus)
	}
}

func TestHandleWebhookMissingAmountRejected(t *testing.T) {
	f := setupSettlementTest(t)
	order := f.seedSettlementOrder(t)

	// Signed but corrupted: a successful charge with no amount must not
	// settle against the order total unchecked.
	body := []byte(fmt.Sprintf(
		`{"event":"charge.completed","data":{"id":777005,"tx_ref":%q,"status":"successful","currency":"XOF"}}`,
		order.TrackingNumber,
	))
	_, err := f.svc.HandleWebhook(context.Background(), WebhookInput{
		Gateway:   constants.GatewayFlutterwave,
		Signature: signFlutterwave(body),
		Body:      body,
	})
	if !errors.Is(err, ErrGatewayResponseInvalid) {
		t.Fatalf("want ErrGatewayResponseInvalid got %v", err)
	}

	got, _ := f.orderRepo.GetByID(order.ID)
	if got.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("corrupted payload must not settle, payment_status=%s", got.PaymentStatus)
	}
	var pendingCount int64
	f.db.Model(&models.PendingPayment{}).Count(&pendingCount)
	if pendingCount != 0 {
		t.Fatalf("corrupted payload must not checkpoint, rows=%d", pendingCount)
	}
}

func TestHandleWebhookPaystackSettles(t *testing.T) {
	f := setupSettlementTest(t)
	order := f.seedSettlementOrder(t)

	// XOF is zero-decimal, so the reported amount is already in main units.
	body := []byte(fmt.Sprintf(
		`{"event":"charge.success","data":{"id":888001,"reference":%q,"status":"success","amount":5000,"currency":"XOF"}}`,
		order.TrackingNumber,
	))
	result, err := f.svc.HandleWebhook(context.Background(), WebhookInput{
		Gateway:   constants.GatewayPaystack,
		Signature: signPaystack(body),
		Body:      body,
	})
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if !result.Processed {
		t.Fatalf("expected settlement, got %+v", result)
	}
}

func TestHandleWebhookDuplicateDelivery(t *testing.T) {
	f := setupSettlementTest(t)
	order := f.seedSettlementOrder(t)

	body := []byte(fmt.Sprintf(
		`{"event":"charge.completed","data":{"id":777004,"tx_ref":%q,"status":"successful","amount":5000,"currency":"XOF"}}`,
		order.TrackingNumber,
	))
	input := WebhookInput{
		Gateway:   constants.GatewayFlutterwave,
		Signature: signFlutterwave(body),
		Body:      body,
	}

	first, err := f.svc.HandleWebhook(context.Background(), input)
	if err != nil || !first.Processed {
		t.Fatalf("first delivery: result=%+v err=%v", first, err)
	}
	second, err := f.svc.HandleWebhook(context.Background(), input)
	if err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}
	if second.Processed {
		t.Fatalf("redelivery must be a no-op, got %+v", second)
	}

	var ledgerCount int64
	f.db.Model(&models.WalletTransaction{}).Count(&ledgerCount)
	if ledgerCount != 2 {
		t.Fatalf("redelivery must not credit again, ledger rows=%d", ledgerCount)
	}
}

func TestHandleWebhookUnknownGateway(t *testing.T) {
	f := setupSettlementTest(t)

	_, err := f.svc.HandleWebhook(context.Background(), WebhookInput{
		Gateway: "mpesa",
		Body:    []byte(`{}`),
	})
	if !errors.Is(err, ErrGatewayNotSupported) {
		t.Fatalf("want ErrGatewayNotSupported got %v", err)
	}
}

func TestMainUnitFromSubunits(t *testing.T) {
	if got := mainUnitFromSubunits(5000, "XOF"); !got.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("XOF want 5000 got %s", got)
	}
	if got := mainUnitFromSubunits(5000, "usd"); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("USD want 50 got %s", got)
	}
	if got := mainUnitFromSubunits(123, "EUR"); !got.Equal(decimal.RequireFromString("1.23")) {
		t.Fatalf("EUR want 1.23 got %s", got)
	}
}
