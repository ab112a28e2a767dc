package flutterwave

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("flutterwave config invalid")
	ErrRequestFailed    = errors.New("flutterwave request failed")
	ErrResponseInvalid  = errors.New("flutterwave response invalid")
	ErrSignatureInvalid = errors.New("flutterwave signature invalid")
)

// Config holds the gateway credentials.
type Config struct {
	BaseURL       string
	PublicKey     string
	SecretKey     string
	WebhookSecret string
	CallbackURL   string
}

// InitializeInput is the hosted-payment creation request.
type InitializeInput struct {
	TxRef         string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	CustomerName  string
	RedirectURL   string
}

// InitializeResult is the hosted-payment creation response.
type InitializeResult struct {
	PaymentLink string
	Raw         map[string]interface{}
}

// VerifyResult is the transaction verification response.
type VerifyResult struct {
	Status        string
	TransactionID string
	TxRef         string
	Amount        decimal.Decimal
	Currency      string
	Raw           map[string]interface{}
}

// ValidateConfig checks required credentials.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	return nil
}

// Initialize creates a hosted payment page and returns its link.
func Initialize(ctx context.Context, cfg *Config, input InitializeInput) (*InitializeResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.TxRef) == "" || input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: tx_ref and amount are required", ErrConfigInvalid)
	}

	redirectURL := strings.TrimSpace(input.RedirectURL)
	if redirectURL == "" {
		redirectURL = strings.TrimSpace(cfg.CallbackURL)
	}
	params := map[string]interface{}{
		"tx_ref":       input.TxRef,
		"amount":       input.Amount.String(),
		"currency":     strings.ToUpper(strings.TrimSpace(input.Currency)),
		"redirect_url": redirectURL,
		"customer": map[string]interface{}{
			"email": strings.TrimSpace(input.CustomerEmail),
			"name":  strings.TrimSpace(input.CustomerName),
		},
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/v3/payments"
	respBytes, err := doRequest(ctx, cfg, http.MethodPost, endpoint, params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if !strings.EqualFold(resp.Status, "success") || strings.TrimSpace(resp.Data.Link) == "" {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &InitializeResult{
		PaymentLink: resp.Data.Link,
		Raw:         raw,
	}, nil
}

// Verify confirms a transaction by its reference.
func Verify(ctx context.Context, cfg *Config, txRef string) (*VerifyResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return nil, fmt.Errorf("%w: tx_ref is required", ErrConfigInvalid)
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") +
		"/v3/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)
	respBytes, err := doRequest(ctx, cfg, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			ID       json.Number `json:"id"`
			TxRef    string      `json:"tx_ref"`
			Status   string      `json:"status"`
			Amount   json.Number `json:"amount"`
			Currency string      `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if !strings.EqualFold(resp.Status, "success") {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}
	amount, err := decimal.NewFromString(resp.Data.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", ErrResponseInvalid, resp.Data.Amount.String())
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &VerifyResult{
		Status:        strings.ToLower(strings.TrimSpace(resp.Data.Status)),
		TransactionID: resp.Data.ID.String(),
		TxRef:         resp.Data.TxRef,
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(resp.Data.Currency)),
		Raw:           raw,
	}, nil
}

// VerifyWebhookSignature checks the verif-hash header against an HMAC-SHA256
// of the raw body. Comparison is constant time.
func VerifyWebhookSignature(cfg *Config, signature string, body []byte) error {
	if cfg == nil || strings.TrimSpace(cfg.WebhookSecret) == "" {
		return fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrSignatureInvalid
	}
	mac := hmac.New(sha256.New, []byte(cfg.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrSignatureInvalid
	}
	return nil
}

// IsSuccessful reports whether a verify status means the charge went through.
func IsSuccessful(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "successful")
}

func doRequest(ctx context.Context, cfg *Config, method, endpoint string, params map[string]interface{}) ([]byte, error) {
	var reqBody io.Reader
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		reqBody = strings.NewReader(string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SecretKey)
	req.Header.Set("Accept", "application/json")
	if params != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}
	return respBytes, nil
}
