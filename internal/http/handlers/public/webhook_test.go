package public

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/provider"
	"github.com/edoto/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

const webhookTestSecret = "flw-webhook-secret"

// setupWebhookTest wires just enough of the container for the signature
// gate. Nothing past the gate is reached in these tests.
func setupWebhookTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	settlement := service.NewSettlementService(
		nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil,
		&config.PaymentConfig{
			Currency:    constants.CurrencyDefault,
			Flutterwave: config.GatewayConfig{WebhookSecret: webhookTestSecret},
		},
		config.SettlementConfig{},
	)
	h := New(&provider.Container{SettlementService: settlement})
	r := gin.New()
	r.POST("/webhooks/flutterwave", h.FlutterwaveWebhook)
	return r
}

func signWebhookBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookForgedSignatureGets403(t *testing.T) {
	r := setupWebhookTest(t)

	body := []byte(`{"event":"charge.completed","data":{"id":1,"tx_ref":"ORD-1-1","status":"successful","amount":5000,"currency":"XOF"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/flutterwave", bytes.NewReader(body))
	req.Header.Set("verif-hash", "not-the-signature")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if received, _ := resp["received"].(bool); received {
		t.Fatalf("forged call must not be acknowledged, got %v", resp)
	}
}

func TestWebhookMissingSignatureGets403(t *testing.T) {
	r := setupWebhookTest(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/flutterwave", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestWebhookSignedIgnorableEventAcked(t *testing.T) {
	r := setupWebhookTest(t)

	// Authenticated but not a successful charge: ack, no settlement.
	body := []byte(`{"event":"charge.completed","data":{"id":2,"tx_ref":"ORD-1-1","status":"failed","amount":5000,"currency":"XOF"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/flutterwave", bytes.NewReader(body))
	req.Header.Set("verif-hash", signWebhookBody(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		StatusCode int                    `json:"status_code"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("status_code = %d, want 0", resp.StatusCode)
	}
	if received, _ := resp.Data["received"].(bool); !received {
		t.Fatalf("signed event must be acknowledged, got %+v", resp.Data)
	}
	if processed, _ := resp.Data["processed"].(bool); processed {
		t.Fatalf("ignorable event must not settle")
	}
}
