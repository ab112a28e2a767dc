package flutterwave

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestVerifyWebhookSignature(t *testing.T) {
	cfg := &Config{BaseURL: "https://api.flutterwave.com", SecretKey: "sk", WebhookSecret: "hook_secret"}
	body := []byte(`{"event":"charge.completed","data":{"tx_ref":"FLW-1-1"}}`)

	mac := hmac.New(sha256.New, []byte(cfg.WebhookSecret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	if err := VerifyWebhookSignature(cfg, signature, body); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := VerifyWebhookSignature(cfg, "deadbeef", body); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("forged signature accepted, err=%v", err)
	}
	if err := VerifyWebhookSignature(cfg, "", body); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("empty signature accepted, err=%v", err)
	}
}

func TestInitializeAgainstStub(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/payments" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","message":"ok","data":{"link":"https://checkout.flutterwave.com/pay/abc"}}`))
	}))
	defer server.Close()

	cfg := &Config{BaseURL: server.URL, SecretKey: "sk_test", CallbackURL: "https://shop.example.com/return"}
	result, err := Initialize(context.Background(), cfg, InitializeInput{
		TxRef:         "FLW-1-1700000000000",
		Amount:        decimal.NewFromInt(5000),
		Currency:      "XOF",
		CustomerEmail: "client@example.com",
	})
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if result.PaymentLink != "https://checkout.flutterwave.com/pay/abc" {
		t.Fatalf("unexpected payment link %q", result.PaymentLink)
	}
}

func TestVerifyAgainstStub(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tx_ref"); got != "FLW-1-1700000000000" {
			t.Fatalf("unexpected tx_ref %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","message":"ok","data":{"id":12345,"tx_ref":"FLW-1-1700000000000","status":"successful","amount":5000,"currency":"XOF"}}`))
	}))
	defer server.Close()

	cfg := &Config{BaseURL: server.URL, SecretKey: "sk_test"}
	result, err := Verify(context.Background(), cfg, "FLW-1-1700000000000")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !IsSuccessful(result.Status) {
		t.Fatalf("status want successful got %q", result.Status)
	}
	if !result.Amount.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("amount want 5000 got %s", result.Amount)
	}
	if result.Currency != "XOF" {
		t.Fatalf("currency want XOF got %q", result.Currency)
	}
	if result.TransactionID != "12345" {
		t.Fatalf("transaction id want 12345 got %q", result.TransactionID)
	}
}

func TestVerifyRequestFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := &Config{BaseURL: server.URL, SecretKey: "sk_test"}
	if _, err := Verify(context.Background(), cfg, "FLW-1-1"); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("want ErrRequestFailed got %v", err)
	}
}
