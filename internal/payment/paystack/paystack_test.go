package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", value, err)
	}
	return d
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	cfg := &Config{BaseURL: "https://api.paystack.co", SecretKey: "sk_test_abc"}
	body := []byte(`{"event":"charge.success","data":{"reference":"PSK-1-1"}}`)

	if err := VerifyWebhookSignature(cfg, signBody(cfg.SecretKey, body), body); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	if err := VerifyWebhookSignature(cfg, signBody("other_secret", body), body); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("forged signature accepted, err=%v", err)
	}

	if err := VerifyWebhookSignature(cfg, "", body); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("empty signature accepted, err=%v", err)
	}

	tampered := []byte(`{"event":"charge.success","data":{"reference":"PSK-1-2"}}`)
	if err := VerifyWebhookSignature(cfg, signBody(cfg.SecretKey, body), tampered); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("tampered body accepted, err=%v", err)
	}
}

func TestSubunitAmountZeroDecimal(t *testing.T) {
	cases := []struct {
		currency string
		amount   string
		want     int64
	}{
		{"XOF", "5000", 5000},
		{"XAF", "1250", 1250},
		{"NGN", "50.75", 5075},
		{"USD", "10", 1000},
	}
	for _, tc := range cases {
		got := subunitAmount(mustDecimal(t, tc.amount), tc.currency)
		if got != tc.want {
			t.Fatalf("%s %s subunits want %d got %d", tc.currency, tc.amount, tc.want, got)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(nil); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("nil config accepted, err=%v", err)
	}
	if err := ValidateConfig(&Config{BaseURL: "https://api.paystack.co"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("missing secret key accepted, err=%v", err)
	}
	if err := ValidateConfig(&Config{BaseURL: "https://api.paystack.co", SecretKey: "sk"}); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
