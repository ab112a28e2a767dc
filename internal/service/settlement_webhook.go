package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/payment/flutterwave"
	"github.com/edoto/marketplace/internal/payment/paystack"
	"github.com/edoto/marketplace/internal/payment/stripe"

	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v82"
)

// WebhookInput is the raw provider notification.
type WebhookInput struct {
	Gateway   string
	Signature string
	Body      []byte
}

// HandleWebhook authenticates and settles a provider notification.
// Signature failures and ignorable events come back as errors; the HTTP
// layer acknowledges regardless so providers do not hammer the endpoint.
func (s *SettlementService) HandleWebhook(ctx context.Context, input WebhookInput) (*SettleResult, error) {
	gateway := strings.ToLower(strings.TrimSpace(input.Gateway))
	log := logger.SW("gateway", gateway)

	settleInput, err := s.parseWebhook(input, gateway)
	if err != nil {
		log.Warnw("webhook_rejected", "error", err)
		return nil, err
	}
	if settleInput == nil {
		// Authenticated but not a successful-payment event.
		log.Debugw("webhook_ignored")
		return &SettleResult{Processed: false}, nil
	}

	return s.Settle(ctx, *settleInput)
}

func (s *SettlementService) parseWebhook(input WebhookInput, gateway string) (*SettleInput, error) {
	if s.paymentCfg == nil {
		return nil, ErrGatewayConfigInvalid
	}
	switch gateway {
	case constants.GatewayFlutterwave:
		return s.parseFlutterwaveWebhook(input)
	case constants.GatewayPaystack:
		return s.parsePaystackWebhook(input)
	case constants.GatewayStripe:
		return s.parseStripeWebhook(input)
	default:
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotSupported, gateway)
	}
}

type flutterwaveWebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID       json.Number `json:"id"`
		TxRef    string      `json:"tx_ref"`
		Status   string      `json:"status"`
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency"`
	} `json:"data"`
}

func (s *SettlementService) parseFlutterwaveWebhook(input WebhookInput) (*SettleInput, error) {
	cfg := flutterwave.Config{WebhookSecret: s.paymentCfg.Flutterwave.WebhookSecret}
	if err := flutterwave.VerifyWebhookSignature(&cfg, input.Signature, input.Body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookSignatureInvalid, err)
	}

	var payload flutterwaveWebhookPayload
	if err := json.Unmarshal(input.Body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayResponseInvalid, err)
	}
	if payload.Event != "charge.completed" || !flutterwave.IsSuccessful(payload.Data.Status) {
		return nil, nil
	}
	if payload.Data.TxRef == "" || payload.Data.ID.String() == "" {
		return nil, fmt.Errorf("%w: tx_ref or id missing", ErrGatewayResponseInvalid)
	}

	amount, err := decimal.NewFromString(payload.Data.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", ErrGatewayResponseInvalid, payload.Data.Amount.String())
	}
	return &SettleInput{
		TrackingNumber: payload.Data.TxRef,
		TransactionID:  payload.Data.ID.String(),
		Gateway:        constants.GatewayFlutterwave,
		Amount:         models.NewMoneyFromDecimal(amount),
		Currency:       payload.Data.Currency,
	}, nil
}

type paystackWebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID        json.Number `json:"id"`
		Reference string      `json:"reference"`
		Status    string      `json:"status"`
		Amount    json.Number `json:"amount"` // subunits
		Currency  string      `json:"currency"`
	} `json:"data"`
}

func (s *SettlementService) parsePaystackWebhook(input WebhookInput) (*SettleInput, error) {
	cfg := paystack.Config{SecretKey: s.paymentCfg.Paystack.SecretKey}
	if err := paystack.VerifyWebhookSignature(&cfg, input.Signature, input.Body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookSignatureInvalid, err)
	}

	var payload paystackWebhookPayload
	if err := json.Unmarshal(input.Body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayResponseInvalid, err)
	}
	if payload.Event != "charge.success" || !paystack.IsSuccessful(payload.Data.Status) {
		return nil, nil
	}
	if payload.Data.Reference == "" {
		return nil, fmt.Errorf("%w: reference missing", ErrGatewayResponseInvalid)
	}

	subunits, err := payload.Data.Amount.Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", ErrGatewayResponseInvalid, payload.Data.Amount.String())
	}
	return &SettleInput{
		TrackingNumber: payload.Data.Reference,
		TransactionID:  payload.Data.ID.String(),
		Gateway:        constants.GatewayPaystack,
		Amount:         models.NewMoneyFromDecimal(mainUnitFromSubunits(subunits, payload.Data.Currency)),
		Currency:       payload.Data.Currency,
	}, nil
}

func (s *SettlementService) parseStripeWebhook(input WebhookInput) (*SettleInput, error) {
	cfg := stripe.Config{
		SecretKey:     s.paymentCfg.Stripe.SecretKey,
		WebhookSecret: s.paymentCfg.Stripe.WebhookSecret,
	}
	event, err := stripe.VerifyWebhookSignature(&cfg, input.Signature, input.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookSignatureInvalid, err)
	}
	if event.Type != "payment_intent.succeeded" {
		return nil, nil
	}

	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayResponseInvalid, err)
	}
	tracking := intent.Metadata["tx_ref"]
	if tracking == "" || intent.ID == "" {
		return nil, fmt.Errorf("%w: tx_ref or intent id missing", ErrGatewayResponseInvalid)
	}

	currency := strings.ToUpper(string(intent.Currency))
	return &SettleInput{
		TrackingNumber: tracking,
		TransactionID:  intent.ID,
		Gateway:        constants.GatewayStripe,
		Amount:         models.NewMoneyFromDecimal(mainUnitFromSubunits(intent.Amount, currency)),
		Currency:       currency,
	}, nil
}

// zeroDecimalCurrencies are charged in whole units by every provider.
var zeroDecimalCurrencies = map[string]bool{
	"XOF": true, "XAF": true, "JPY": true, "KRW": true,
	"CLP": true, "GNF": true, "MGA": true, "RWF": true,
	"UGX": true, "VND": true, "VUV": true, "XPF": true,
}

func mainUnitFromSubunits(amount int64, currency string) decimal.Decimal {
	if zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))] {
		return decimal.NewFromInt(amount)
	}
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))
}
