package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/events"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/payment/feexpay"
	"github.com/edoto/marketplace/internal/payment/flutterwave"
	"github.com/edoto/marketplace/internal/payment/paystack"
	"github.com/edoto/marketplace/internal/payment/stripe"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OTPMailer sends the pickup code mail. Settlement treats a send failure
// as fatal, so implementations must report errors truthfully.
type OTPMailer interface {
	SendPaymentOTP(toEmail string, input PaymentOTPEmailInput) error
}

// SettlementService turns confirmed gateway payments into committed order
// state: payment intent, pickup OTP, status cascade, wallet credits.
type SettlementService struct {
	db            *gorm.DB
	orderRepo     *repository.GormOrderRepository
	intentRepo    *repository.GormPaymentIntentRepository
	pendingRepo   *repository.GormPendingPaymentRepository
	userRepo      *repository.GormUserRepository
	pickupRepo    *repository.GormPickupPointRepository
	walletSvc     *WalletService
	emailSvc      OTPMailer
	invoiceSvc    *InvoiceService
	analyticsSvc  *AnalyticsService
	publisher     *events.Publisher
	paymentCfg    *config.PaymentConfig
	settlementCfg config.SettlementConfig
}

// NewSettlementService creates the service.
func NewSettlementService(
	db *gorm.DB,
	orderRepo *repository.GormOrderRepository,
	intentRepo *repository.GormPaymentIntentRepository,
	pendingRepo *repository.GormPendingPaymentRepository,
	userRepo *repository.GormUserRepository,
	pickupRepo *repository.GormPickupPointRepository,
	walletSvc *WalletService,
	emailSvc OTPMailer,
	invoiceSvc *InvoiceService,
	analyticsSvc *AnalyticsService,
	publisher *events.Publisher,
	paymentCfg *config.PaymentConfig,
	settlementCfg config.SettlementConfig,
) *SettlementService {
	return &SettlementService{
		db:            db,
		orderRepo:     orderRepo,
		intentRepo:    intentRepo,
		pendingRepo:   pendingRepo,
		userRepo:      userRepo,
		pickupRepo:    pickupRepo,
		walletSvc:     walletSvc,
		emailSvc:      emailSvc,
		invoiceSvc:    invoiceSvc,
		analyticsSvc:  analyticsSvc,
		publisher:     publisher,
		paymentCfg:    paymentCfg,
		settlementCfg: settlementCfg,
	}
}

// SettleInput identifies one confirmed gateway payment.
type SettleInput struct {
	TrackingNumber   string
	TransactionID    string
	Gateway          string
	Amount           models.Money
	Currency         string
	PendingPaymentID uint
}

// SettleResult reports the outcome. Processing failures land in Err rather
// than a returned error so transport callers can always acknowledge.
type SettleResult struct {
	Processed        bool
	OrderID          uint
	PaymentIntentID  uint
	OTP              string
	PendingPaymentID uint
	Err              string
}

// Settle runs the settlement pipeline for one payment.
func (s *SettlementService) Settle(ctx context.Context, input SettleInput) (*SettleResult, error) {
	input.TrackingNumber = strings.TrimSpace(input.TrackingNumber)
	input.TransactionID = strings.TrimSpace(input.TransactionID)
	if input.TrackingNumber == "" || input.TransactionID == "" {
		return nil, ErrSettlementInvalid
	}

	log := logger.SW(
		"tracking_number", input.TrackingNumber,
		"transaction_id", input.TransactionID,
		"gateway", input.Gateway,
	)

	pending, err := s.checkpoint(input, log)
	if err != nil {
		return nil, err
	}
	if pending.Status == constants.PendingPaymentStatusCompleted {
		log.Infow("settlement_duplicate_skipped", "pending_payment_id", pending.ID)
		return &SettleResult{Processed: false, PendingPaymentID: pending.ID}, nil
	}
	if pending.Status == constants.PendingPaymentStatusDead {
		log.Warnw("settlement_dead_row_skipped", "pending_payment_id", pending.ID)
		return &SettleResult{Processed: false, PendingPaymentID: pending.ID, Err: "pending payment dead"}, nil
	}

	var (
		order          *models.Order
		intent         *models.PaymentIntent
		otp            string
		alreadySettled bool
		missingShop    *MissingShopError
	)

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		lockedOrder, err := orderRepo.GetByTrackingNumberForUpdate(input.TrackingNumber)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
		}
		if lockedOrder == nil {
			return ErrOrderNotFound
		}
		order = lockedOrder

		if lockedOrder.PaymentStatus == constants.PaymentStatusSuccess {
			alreadySettled = true
			return nil
		}

		if err := s.checkAmount(input, lockedOrder); err != nil {
			return err
		}

		now := time.Now()
		intent = &models.PaymentIntent{
			OrderID:        lockedOrder.ID,
			TrackingNumber: lockedOrder.TrackingNumber,
			PaymentGateway: resolveGateway(input.Gateway, lockedOrder.PaymentGateway),
			TransactionRef: buildTransactionRef(input.Gateway, lockedOrder.ID, now),
			Amount:         lockedOrder.Total,
			Currency:       lockedOrder.Currency,
			Status:         constants.PaymentIntentStatusSuccess,
		}
		if err := s.intentRepo.WithTx(tx).Create(intent); err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentIntentCreateError, err)
		}

		code, err := generateOTP(constants.OTPLength)
		if err != nil {
			return err
		}
		otp = code
		expiresAt := otpExpiry(now)

		email, err := s.resolveCustomerEmail(lockedOrder)
		if err != nil {
			return err
		}
		pickupName := s.pickupPointName(lockedOrder.PickupPointID)
		if err := s.emailSvc.SendPaymentOTP(email, PaymentOTPEmailInput{
			TrackingNumber: lockedOrder.TrackingNumber,
			OTP:            code,
			Amount:         lockedOrder.Total,
			Currency:       lockedOrder.Currency,
			PickupPoint:    pickupName,
		}); err != nil {
			return err
		}

		info := lockedOrder.PaymentInfo
		info.Gateway = intent.PaymentGateway
		info.TxRef = intent.TransactionRef
		if err := orderRepo.UpdateFields(lockedOrder.ID, map[string]interface{}{
			"order_status":        constants.OrderStatusProcessing,
			"payment_status":      constants.PaymentStatusSuccess,
			"paid_total":          lockedOrder.Total,
			"otp_code":            code,
			"otp_expires_at":      expiresAt,
			"otp_attempts":        0,
			"otp_verified_at":     nil,
			"payment_intent_info": info,
		}); err != nil {
			return fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
		}
		if err := orderRepo.UpdateChildrenStatus(lockedOrder.ID, constants.OrderStatusProcessing, constants.PaymentStatusSuccess); err != nil {
			return fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
		}
		lockedOrder.OrderStatus = constants.OrderStatusProcessing
		lockedOrder.PaymentStatus = constants.PaymentStatusSuccess

		if err := s.walletSvc.CreditForOrder(tx, lockedOrder); err != nil {
			var missing *MissingShopError
			if errors.As(err, &missing) {
				missingShop = missing
			}
			return err
		}
		return nil
	})

	if txErr != nil {
		return s.recordFailure(pending, order, missingShop, txErr, log)
	}

	if alreadySettled {
		if err := s.pendingRepo.MarkCompleted(pending.ID, nil); err != nil {
			log.Warnw("pending_payment_complete_failed", "pending_payment_id", pending.ID, "error", err)
		}
		log.Infow("settlement_order_already_settled", "order_id", order.ID)
		return &SettleResult{Processed: false, OrderID: order.ID, PendingPaymentID: pending.ID}, nil
	}

	intentID := intent.ID
	if err := s.pendingRepo.MarkCompleted(pending.ID, &intentID); err != nil {
		log.Warnw("pending_payment_complete_failed", "pending_payment_id", pending.ID, "error", err)
	}

	s.afterCommit(ctx, order, input, log)

	log.Infow("settlement_success",
		"order_id", order.ID,
		"payment_intent_id", intent.ID,
		"pending_payment_id", pending.ID,
		"amount", order.Total.String(),
	)
	return &SettleResult{
		Processed:        true,
		OrderID:          order.ID,
		PaymentIntentID:  intent.ID,
		OTP:              otp,
		PendingPaymentID: pending.ID,
	}, nil
}

// checkpoint finds or creates the durable pending payment row.
func (s *SettlementService) checkpoint(input SettleInput, log *zap.SugaredLogger) (*models.PendingPayment, error) {
	if input.PendingPaymentID != 0 {
		pending, err := s.pendingRepo.GetByID(input.PendingPaymentID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
		}
		if pending == nil {
			return nil, ErrSettlementInvalid
		}
		return pending, nil
	}

	existing, err := s.pendingRepo.GetByTrackingAndTransaction(input.TrackingNumber, input.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
	if existing != nil {
		return existing, nil
	}

	pending := &models.PendingPayment{
		TrackingNumber: input.TrackingNumber,
		TransactionID:  input.TransactionID,
		Gateway:        strings.ToLower(strings.TrimSpace(input.Gateway)),
		Amount:         input.Amount,
		Currency:       normalizeCurrency(input.Currency),
		Status:         constants.PendingPaymentStatusProcessing,
	}
	if err := s.pendingRepo.Create(pending); err != nil {
		// A concurrent settle may have won the unique-index race; reuse its row.
		existing, getErr := s.pendingRepo.GetByTrackingAndTransaction(input.TrackingNumber, input.TransactionID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
	log.Infow("settlement_checkpoint_created", "pending_payment_id", pending.ID)
	return pending, nil
}

func (s *SettlementService) checkAmount(input SettleInput, order *models.Order) error {
	if input.Amount.Decimal.Sign() > 0 && !input.Amount.Decimal.Equal(order.Total.Decimal) {
		return fmt.Errorf("%w: got %s want %s", ErrPaymentAmountMismatch,
			input.Amount.String(), order.Total.String())
	}
	if currency := normalizeCurrency(input.Currency); currency != "" && currency != normalizeCurrency(order.Currency) {
		return fmt.Errorf("%w: got %s want %s", ErrPaymentCurrencyMismatch, currency, order.Currency)
	}
	return nil
}

func (s *SettlementService) resolveCustomerEmail(order *models.Order) (string, error) {
	contact := strings.TrimSpace(order.CustomerContact)
	if contact != "" {
		if _, err := mail.ParseAddress(contact); err == nil {
			return contact, nil
		}
	}
	if order.CustomerID != 0 {
		user, err := s.userRepo.GetByID(order.CustomerID)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSettlementFailed, err)
		}
		if user != nil && strings.TrimSpace(user.Email) != "" {
			return user.Email, nil
		}
	}
	return "", fmt.Errorf("%w: customer email missing for order %s", ErrSettlementFailed, order.TrackingNumber)
}

func (s *SettlementService) pickupPointName(pickupPointID *uint) string {
	if pickupPointID == nil || s.pickupRepo == nil {
		return ""
	}
	point, err := s.pickupRepo.GetByID(*pickupPointID)
	if err != nil || point == nil {
		return ""
	}
	return point.Name
}

// recordFailure rolls the checkpoint to failed and, when the credit aborted
// on a missing shop, writes the failed ledger row with the base handle so
// it survives the rollback.
func (s *SettlementService) recordFailure(pending *models.PendingPayment, order *models.Order, missingShop *MissingShopError, txErr error, log *zap.SugaredLogger) (*SettleResult, error) {
	if missingShop != nil {
		orderID := uint(0)
		if order != nil {
			orderID = order.ID
		}
		if err := s.walletSvc.RecordFailedCredit(orderID, missingShop, "settlement aborted: shop missing"); err != nil {
			log.Errorw("failed_credit_ledger_write_failed",
				"shop_id", missingShop.ShopID,
				"error", err,
			)
		}
	}
	if err := s.pendingRepo.MarkFailed(pending.ID, txErr.Error()); err != nil {
		log.Errorw("pending_payment_fail_mark_failed", "pending_payment_id", pending.ID, "error", err)
	}
	log.Errorw("settlement_failed",
		"pending_payment_id", pending.ID,
		"error", txErr,
	)
	result := &SettleResult{Processed: false, PendingPaymentID: pending.ID, Err: txErr.Error()}
	if order != nil {
		result.OrderID = order.ID
	}
	return result, nil
}

// afterCommit runs the best-effort post-settlement work.
func (s *SettlementService) afterCommit(ctx context.Context, order *models.Order, input SettleInput, log *zap.SugaredLogger) {
	if s.analyticsSvc != nil {
		if err := s.analyticsSvc.RecordSettlement(order); err != nil {
			log.Warnw("settlement_analytics_failed", "order_id", order.ID, "error", err)
		}
	}
	if s.invoiceSvc != nil {
		if err := s.invoiceSvc.GenerateForOrder(ctx, order.ID); err != nil {
			log.Warnw("settlement_invoice_failed", "order_id", order.ID, "error", err)
		}
	}
	if s.publisher.Enabled() {
		_ = s.publisher.PublishSettlement(ctx, events.SettlementEvent{
			TrackingNumber: order.TrackingNumber,
			TransactionID:  input.TransactionID,
			Gateway:        resolveGateway(input.Gateway, order.PaymentGateway),
			Amount:         order.Total.String(),
			Currency:       order.Currency,
			OrderID:        order.ID,
			SettledAt:      time.Now(),
		})
	}
}

// RetryPending replays one pending payment and owns the retry bookkeeping.
func (s *SettlementService) RetryPending(ctx context.Context, pendingID uint) error {
	pending, err := s.pendingRepo.GetByID(pendingID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
	if pending == nil {
		return nil
	}
	switch pending.Status {
	case constants.PendingPaymentStatusCompleted, constants.PendingPaymentStatusDead:
		return nil
	}

	result, err := s.Settle(ctx, SettleInput{
		TrackingNumber:   pending.TrackingNumber,
		TransactionID:    pending.TransactionID,
		Gateway:          pending.Gateway,
		Amount:           pending.Amount,
		Currency:         pending.Currency,
		PendingPaymentID: pending.ID,
	})
	if err != nil {
		return err
	}
	if result.Err == "" {
		return nil
	}

	dead, err := s.pendingRepo.IncrementRetry(pending.ID, result.Err, s.retryCap())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
	if dead {
		logger.S().Errorw("pending_payment_dead",
			"pending_payment_id", pending.ID,
			"tracking_number", pending.TrackingNumber,
			"retry_count", pending.RetryCount+1,
			"last_error", result.Err,
		)
	}
	return nil
}

func (s *SettlementService) retryCap() int {
	if s.settlementCfg.RetryCap > 0 {
		return s.settlementCfg.RetryCap
	}
	return constants.SettlementRetryCap
}

// ConfirmPaymentInput comes from the gateway completion endpoint.
type ConfirmPaymentInput struct {
	TrackingNumber string
	Gateway        string
	Reference      string
}

// ConfirmPayment verifies the provider transaction and settles on success.
// The checkpoint row is written before the gateway call so any failure past
// this point leaves a failed pending payment for the sweeper; processing
// failures land in SettleResult.Err rather than a returned error.
func (s *SettlementService) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*SettleResult, error) {
	input.TrackingNumber = strings.TrimSpace(input.TrackingNumber)
	input.Reference = strings.TrimSpace(input.Reference)
	if input.TrackingNumber == "" || input.Reference == "" {
		return nil, ErrSettlementInvalid
	}

	log := logger.SW(
		"tracking_number", input.TrackingNumber,
		"transaction_id", input.Reference,
		"gateway", input.Gateway,
	)

	pending, err := s.checkpoint(SettleInput{
		TrackingNumber: input.TrackingNumber,
		TransactionID:  input.Reference,
		Gateway:        input.Gateway,
	}, log)
	if err != nil {
		return nil, err
	}
	switch pending.Status {
	case constants.PendingPaymentStatusCompleted:
		log.Infow("confirm_duplicate_skipped", "pending_payment_id", pending.ID)
		return &SettleResult{Processed: false, PendingPaymentID: pending.ID}, nil
	case constants.PendingPaymentStatusDead:
		log.Warnw("confirm_dead_row_skipped", "pending_payment_id", pending.ID)
		return &SettleResult{Processed: false, PendingPaymentID: pending.ID, Err: "pending payment dead"}, nil
	}

	order, err := s.orderRepo.GetByTrackingNumber(input.TrackingNumber)
	if err != nil {
		return s.recordFailure(pending, nil, nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err), log)
	}
	if order == nil {
		return s.recordFailure(pending, nil, nil, ErrOrderNotFound, log)
	}

	gateway := resolveGateway(input.Gateway, order.PaymentGateway)
	verification, err := s.verifyWithGateway(ctx, gateway, input.Reference)
	if err != nil {
		return s.recordFailure(pending, order, nil, err, log)
	}
	if !verification.Successful {
		return s.recordFailure(pending, order, nil,
			fmt.Errorf("%w: status %s", ErrPaymentNotConfirmed, verification.Status), log)
	}
	if verification.Amount.Sign() > 0 && !verification.Amount.Equal(order.Total.Decimal) {
		return s.recordFailure(pending, order, nil,
			fmt.Errorf("%w: gateway reported %s want %s",
				ErrPaymentAmountMismatch, verification.Amount.String(), order.Total.String()), log)
	}
	if verification.Currency != "" && verification.Currency != normalizeCurrency(order.Currency) {
		return s.recordFailure(pending, order, nil,
			fmt.Errorf("%w: gateway reported %s want %s",
				ErrPaymentCurrencyMismatch, verification.Currency, order.Currency), log)
	}

	return s.Settle(ctx, SettleInput{
		TrackingNumber:   order.TrackingNumber,
		TransactionID:    input.Reference,
		Gateway:          gateway,
		Amount:           models.NewMoneyFromDecimal(verification.Amount),
		Currency:         verification.Currency,
		PendingPaymentID: pending.ID,
	})
}

type gatewayVerification struct {
	Successful bool
	Status     string
	Amount     decimal.Decimal
	Currency   string
}

func (s *SettlementService) verifyWithGateway(ctx context.Context, gateway, reference string) (*gatewayVerification, error) {
	if s.paymentCfg == nil {
		return nil, ErrGatewayConfigInvalid
	}
	switch gateway {
	case constants.GatewayFlutterwave:
		cfg := s.paymentCfg.Flutterwave
		result, err := flutterwave.Verify(ctx, &flutterwave.Config{
			BaseURL:   cfg.BaseURL,
			SecretKey: cfg.SecretKey,
		}, reference)
		if err != nil {
			return nil, mapGatewayError(err, flutterwave.ErrConfigInvalid, flutterwave.ErrRequestFailed, flutterwave.ErrResponseInvalid)
		}
		return &gatewayVerification{
			Successful: flutterwave.IsSuccessful(result.Status),
			Status:     result.Status,
			Amount:     result.Amount,
			Currency:   result.Currency,
		}, nil
	case constants.GatewayFeexpay:
		cfg := s.paymentCfg.Feexpay
		result, err := feexpay.Verify(ctx, &feexpay.Config{
			BaseURL:   cfg.BaseURL,
			SecretKey: cfg.SecretKey,
		}, reference)
		if err != nil {
			return nil, mapGatewayError(err, feexpay.ErrConfigInvalid, feexpay.ErrRequestFailed, feexpay.ErrResponseInvalid)
		}
		return &gatewayVerification{
			Successful: feexpay.IsSuccessful(result.Status),
			Status:     result.Status,
			Amount:     result.Amount,
			Currency:   result.Currency,
		}, nil
	case constants.GatewayPaystack:
		cfg := s.paymentCfg.Paystack
		result, err := paystack.Verify(ctx, &paystack.Config{
			BaseURL:   cfg.BaseURL,
			SecretKey: cfg.SecretKey,
		}, reference)
		if err != nil {
			return nil, mapGatewayError(err, paystack.ErrConfigInvalid, paystack.ErrRequestFailed, paystack.ErrResponseInvalid)
		}
		return &gatewayVerification{
			Successful: paystack.IsSuccessful(result.Status),
			Status:     result.Status,
			Amount:     result.Amount,
			Currency:   result.Currency,
		}, nil
	case constants.GatewayStripe:
		cfg := s.paymentCfg.Stripe
		result, err := stripe.Verify(ctx, &stripe.Config{
			SecretKey: cfg.SecretKey,
		}, reference)
		if err != nil {
			return nil, mapGatewayError(err, stripe.ErrConfigInvalid, stripe.ErrRequestFailed, stripe.ErrResponseInvalid)
		}
		return &gatewayVerification{
			Successful: stripe.IsSuccessful(result.Status),
			Status:     result.Status,
			Amount:     result.Amount,
			Currency:   result.Currency,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotSupported, gateway)
	}
}

func mapGatewayError(err, configErr, requestErr, responseErr error) error {
	switch {
	case errors.Is(err, configErr):
		return fmt.Errorf("%w: %v", ErrGatewayConfigInvalid, err)
	case errors.Is(err, requestErr):
		return fmt.Errorf("%w: %v", ErrGatewayRequestFailed, err)
	case errors.Is(err, responseErr):
		return fmt.Errorf("%w: %v", ErrGatewayResponseInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrGatewayRequestFailed, err)
	}
}

// VerifyOTPInput identifies one pickup handover attempt.
type VerifyOTPInput struct {
	TrackingNumber string
	Code           string
	ActorUserID    uint
}

// VerifyOTP completes the pickup handover: the pickup point agent keys in
// the client's code and a match closes the order.
func (s *SettlementService) VerifyOTP(input VerifyOTPInput) (*models.Order, error) {
	input.TrackingNumber = strings.TrimSpace(input.TrackingNumber)
	input.Code = strings.TrimSpace(input.Code)
	if input.TrackingNumber == "" || input.Code == "" {
		return nil, ErrOTPInvalid
	}

	actor, err := s.userRepo.GetByID(input.ActorUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if actor == nil || actor.Role != constants.RolePickupPoint {
		return nil, ErrAuthPermissionDenied
	}

	var (
		verified    *models.Order
		burnOrderID uint
		burnTo      int
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByTrackingNumberForUpdate(input.TrackingNumber)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if actor.PickupPointID == nil || order.PickupPointID == nil || *actor.PickupPointID != *order.PickupPointID {
			return ErrAuthPermissionDenied
		}
		if order.PaymentStatus != constants.PaymentStatusSuccess {
			return ErrOrderStatusInvalid
		}
		if order.OTPVerifiedAt != nil {
			return ErrOTPAlreadyUsed
		}
		if order.OTPAttempts >= constants.OTPMaxAttempts {
			return ErrOTPAttemptsExceeded
		}
		if err := validateOTPWindow(order.OTPExpiresAt, time.Now()); err != nil {
			return err
		}
		if order.OTPCode == "" || order.OTPCode != input.Code {
			// The burn happens after the rollback so the counter sticks.
			burnOrderID = order.ID
			burnTo = order.OTPAttempts + 1
			return ErrOTPInvalid
		}

		now := time.Now()
		if err := orderRepo.UpdateFields(order.ID, map[string]interface{}{
			"order_status":    constants.OrderStatusCompleted,
			"otp_verified_at": now,
			"otp_attempts":    order.OTPAttempts + 1,
		}); err != nil {
			return fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
		}
		if err := orderRepo.UpdateChildrenStatus(order.ID, constants.OrderStatusCompleted, constants.PaymentStatusSuccess); err != nil {
			return fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
		}
		order.OrderStatus = constants.OrderStatusCompleted
		order.OTPVerifiedAt = &now
		order.OTPAttempts++
		verified = order
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOTPInvalid) && burnOrderID != 0 {
			if updErr := s.orderRepo.UpdateFields(burnOrderID, map[string]interface{}{
				"otp_attempts": burnTo,
			}); updErr != nil {
				logger.S().Warnw("otp_attempt_burn_failed", "order_id", burnOrderID, "error", updErr)
			}
		}
		return nil, err
	}

	logger.S().Infow("pickup_otp_verified",
		"tracking_number", verified.TrackingNumber,
		"order_id", verified.ID,
		"actor_user_id", input.ActorUserID,
	)
	return verified, nil
}

var gatewayRefPrefixes = map[string]string{
	constants.GatewayFlutterwave: "FLW",
	constants.GatewayFeexpay:     "FPX",
	constants.GatewayPaystack:    "PSK",
	constants.GatewayStripe:      "STR",
}

func buildTransactionRef(gateway string, orderID uint, now time.Time) string {
	prefix, ok := gatewayRefPrefixes[strings.ToLower(strings.TrimSpace(gateway))]
	if !ok {
		prefix = "PAY"
	}
	return fmt.Sprintf("%s-%d-%d", prefix, orderID, now.UnixMilli())
}

func resolveGateway(preferred, fallback string) string {
	gateway := strings.ToLower(strings.TrimSpace(preferred))
	if gateway == "" {
		gateway = strings.ToLower(strings.TrimSpace(fallback))
	}
	return gateway
}

func normalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
