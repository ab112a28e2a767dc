package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
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
	ErrConfigInvalid    = errors.New("paystack config invalid")
	ErrRequestFailed    = errors.New("paystack request failed")
	ErrResponseInvalid  = errors.New("paystack response invalid")
	ErrSignatureInvalid = errors.New("paystack signature invalid")
)

// Config holds the gateway credentials. Paystack signs webhooks with the
// secret key itself, so there is no separate webhook secret.
type Config struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
}

// InitializeInput is the transaction initialization request.
type InitializeInput struct {
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	CallbackURL   string
}

// InitializeResult is the transaction initialization response.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
	Raw              map[string]interface{}
}

// VerifyResult is the transaction verification response.
type VerifyResult struct {
	Status    string
	Reference string
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

// Initialize creates a checkout transaction and returns the authorization URL.
// Paystack wants amounts in subunits; XOF has none, so the amount passes as is.
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
		"amount":       subunitAmount(input.Amount, input.Currency),
		"currency":     strings.ToUpper(strings.TrimSpace(input.Currency)),
		"email":        strings.TrimSpace(input.CustomerEmail),
		"callback_url": callbackURL,
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/transaction/initialize"
	respBytes, err := doRequest(ctx, cfg, http.MethodPost, endpoint, params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if !resp.Status || strings.TrimSpace(resp.Data.AuthorizationURL) == "" {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &InitializeResult{
		AuthorizationURL: resp.Data.AuthorizationURL,
		AccessCode:       resp.Data.AccessCode,
		Reference:        resp.Data.Reference,
		Raw:              raw,
	}, nil
}

// Verify confirms a transaction by its reference.
func Verify(ctx context.Context, cfg *Config, reference string) (*VerifyResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrConfigInvalid)
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/transaction/verify/" + url.PathEscape(reference)
	respBytes, err := doRequest(ctx, cfg, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Status    string      `json:"status"`
			Reference string      `json:"reference"`
			Amount    json.Number `json:"amount"`
			Currency  string      `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}
	subunits, err := decimal.NewFromString(resp.Data.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", ErrResponseInvalid, resp.Data.Amount.String())
	}
	currency := strings.ToUpper(strings.TrimSpace(resp.Data.Currency))

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &VerifyResult{
		Status:    strings.ToLower(strings.TrimSpace(resp.Data.Status)),
		Reference: resp.Data.Reference,
		Amount:    mainUnitAmount(subunits, currency),
		Currency:  currency,
		Raw:       raw,
	}, nil
}

// VerifyWebhookSignature checks the x-paystack-signature header against an
// HMAC-SHA512 of the raw body keyed with the secret key. Constant time.
func VerifyWebhookSignature(cfg *Config, signature string, body []byte) error {
	if cfg == nil || strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrSignatureInvalid
	}
	mac := hmac.New(sha512.New, []byte(cfg.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrSignatureInvalid
	}
	return nil
}

// IsSuccessful reports whether a verify status means the charge went through.
func IsSuccessful(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "success")
}

func isZeroDecimalCurrency(currency string) bool {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "XOF", "XAF", "JPY", "KRW":
		return true
	default:
		return false
	}
}

func subunitAmount(amount decimal.Decimal, currency string) int64 {
	if isZeroDecimalCurrency(currency) {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func mainUnitAmount(subunits decimal.Decimal, currency string) decimal.Decimal {
	if isZeroDecimalCurrency(currency) {
		return subunits
	}
	return subunits.Div(decimal.NewFromInt(100))
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
