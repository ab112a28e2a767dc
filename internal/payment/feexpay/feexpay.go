package feexpay

import (
	"context"
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
	ErrConfigInvalid   = errors.New("feexpay config invalid")
	ErrRequestFailed   = errors.New("feexpay request failed")
	ErrResponseInvalid = errors.New("feexpay response invalid")
)

// Config holds the gateway credentials.
type Config struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
}

// InitializeInput is the payment creation request. Feexpay charges mobile
// money wallets directly, so the customer phone number is the target.
type InitializeInput struct {
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	CustomerPhone string
	CustomerName  string
	CallbackURL   string
}

// InitializeResult is the payment creation response.
type InitializeResult struct {
	Reference string
	Status    string
	Raw       map[string]interface{}
}

// VerifyResult is the payment status response.
type VerifyResult struct {
	Reference string
	Status    string
	Amount    decimal.Decimal
	Currency  string
	Raw       map[string]interface{}
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

// Initialize starts a mobile money charge.
func Initialize(ctx context.Context, cfg *Config, input InitializeInput) (*InitializeResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Reference) == "" || input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: reference and amount are required", ErrConfigInvalid)
	}

	callbackURL := strings.TrimSpace(input.CallbackURL)
	if callbackURL == "" {
		callbackURL = strings.TrimSpace(cfg.CallbackURL)
	}
	params := map[string]interface{}{
		"reference":    input.Reference,
		"amount":       input.Amount.IntPart(),
		"currency":     strings.ToUpper(strings.TrimSpace(input.Currency)),
		"phone":        strings.TrimSpace(input.CustomerPhone),
		"name":         strings.TrimSpace(input.CustomerName),
		"callback_url": callbackURL,
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/v1/payments/initiate"
	respBytes, err := doRequest(ctx, cfg, http.MethodPost, endpoint, params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status    string `json:"status"`
		Message   string `json:"message"`
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	status := strings.ToLower(strings.TrimSpace(resp.Status))
	if status == "" || status == "failed" {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}
	reference := strings.TrimSpace(resp.Reference)
	if reference == "" {
		reference = input.Reference
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &InitializeResult{
		Reference: reference,
		Status:    status,
		Raw:       raw,
	}, nil
}

// Verify fetches the current status of a charge.
func Verify(ctx context.Context, cfg *Config, reference string) (*VerifyResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrConfigInvalid)
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/v1/payments/verify/" + url.PathEscape(reference)
	respBytes, err := doRequest(ctx, cfg, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status    string      `json:"status"`
		Message   string      `json:"message"`
		Reference string      `json:"reference"`
		Amount    json.Number `json:"amount"`
		Currency  string      `json:"currency"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	amount, err := decimal.NewFromString(resp.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", ErrResponseInvalid, resp.Amount.String())
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &VerifyResult{
		Reference: strings.TrimSpace(resp.Reference),
		Status:    strings.ToLower(strings.TrimSpace(resp.Status)),
		Amount:    amount,
		Currency:  strings.ToUpper(strings.TrimSpace(resp.Currency)),
		Raw:       raw,
	}, nil
}

// IsSuccessful reports whether a verify status means the charge went through.
func IsSuccessful(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "successful", "success", "completed":
		return true
	default:
		return false
	}
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
