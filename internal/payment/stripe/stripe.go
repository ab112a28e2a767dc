package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrResponseInvalid  = errors.New("stripe response invalid")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
)

// Config holds the gateway credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string
}

// InitializeInput is the payment intent creation request.
type InitializeInput struct {
	TxRef         string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	Description   string
}

// InitializeResult is the payment intent creation response.
type InitializeResult struct {
	IntentID     string
	ClientSecret string
	Status       string
}

// VerifyResult is the payment intent status response.
type VerifyResult struct {
	IntentID string
	Status   string
	Amount   decimal.Decimal
	Currency string
}

// ValidateConfig checks required credentials.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	return nil
}

func newClient(cfg *Config) *client.API {
	return client.New(cfg.SecretKey, nil)
}

// Initialize creates a payment intent and returns its client secret.
func Initialize(ctx context.Context, cfg *Config, input InitializeInput) (*InitializeResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.TxRef) == "" || input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: tx_ref and amount are required", ErrConfigInvalid)
	}

	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	params := &stripeapi.PaymentIntentParams{
		Params: stripeapi.Params{
			Context: ctx,
			Metadata: map[string]string{
				"tx_ref": input.TxRef,
			},
		},
		Amount:   stripeapi.Int64(smallestUnitAmount(input.Amount, currency)),
		Currency: stripeapi.String(currency),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		params.Description = stripeapi.String(desc)
	}
	if email := strings.TrimSpace(input.CustomerEmail); email != "" {
		params.ReceiptEmail = stripeapi.String(email)
	}

	pi, err := newClient(cfg).PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if pi == nil || pi.ID == "" {
		return nil, ErrResponseInvalid
	}

	return &InitializeResult{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// Verify fetches the current state of a payment intent.
func Verify(ctx context.Context, cfg *Config, intentID string) (*VerifyResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, fmt.Errorf("%w: intent id is required", ErrConfigInvalid)
	}

	params := &stripeapi.PaymentIntentParams{
		Params: stripeapi.Params{Context: ctx},
	}
	pi, err := newClient(cfg).PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if pi == nil {
		return nil, ErrResponseInvalid
	}
	currency := strings.ToUpper(string(pi.Currency))

	return &VerifyResult{
		IntentID: pi.ID,
		Status:   string(pi.Status),
		Amount:   mainUnitAmount(pi.Amount, currency),
		Currency: currency,
	}, nil
}

// VerifyWebhookSignature validates the Stripe-Signature header and returns
// the parsed event.
func VerifyWebhookSignature(cfg *Config, signature string, body []byte) (*stripeapi.Event, error) {
	if cfg == nil || strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	event, err := webhook.ConstructEvent(body, signature, cfg.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return &event, nil
}

// IsSuccessful reports whether an intent status means the charge settled.
func IsSuccessful(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), string(stripeapi.PaymentIntentStatusSucceeded))
}

func isZeroDecimalCurrency(currency string) bool {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "XOF", "XAF", "JPY", "KRW":
		return true
	default:
		return false
	}
}

func smallestUnitAmount(amount decimal.Decimal, currency string) int64 {
	if isZeroDecimalCurrency(currency) {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func mainUnitAmount(smallest int64, currency string) decimal.Decimal {
	if isZeroDecimalCurrency(currency) {
		return decimal.NewFromInt(smallest)
	}
	return decimal.NewFromInt(smallest).Div(decimal.NewFromInt(100))
}
