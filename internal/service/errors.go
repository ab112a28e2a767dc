package service

import "errors"

// Order errors
var (
	ErrOrderInvalid       = errors.New("order input invalid")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderFetchFailed   = errors.New("order fetch failed")
	ErrOrderCreateFailed  = errors.New("order create failed")
	ErrOrderUpdateFailed  = errors.New("order update failed")
	ErrOrderStatusInvalid = errors.New("order status invalid")
	ErrOrderAlreadyPaid   = errors.New("order already paid")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductOutOfStock  = errors.New("product out of stock")
	ErrPickupPointInvalid = errors.New("pickup point invalid")
)

// Settlement errors
var (
	ErrSettlementInvalid        = errors.New("settlement input invalid")
	ErrSettlementDuplicate      = errors.New("settlement already completed")
	ErrSettlementFailed         = errors.New("settlement failed")
	ErrPaymentIntentCreateError = errors.New("payment intent create failed")
	ErrPaymentAmountMismatch    = errors.New("payment amount mismatch")
	ErrPaymentCurrencyMismatch  = errors.New("payment currency mismatch")
	ErrPaymentNotConfirmed      = errors.New("payment not confirmed by gateway")
	ErrGatewayNotSupported      = errors.New("payment gateway not supported")
	ErrGatewayConfigInvalid     = errors.New("payment gateway config invalid")
	ErrGatewayRequestFailed     = errors.New("payment gateway request failed")
	ErrGatewayResponseInvalid   = errors.New("payment gateway response invalid")
	ErrWebhookSignatureInvalid  = errors.New("webhook signature invalid")
)

// OTP errors
var (
	ErrOTPInvalid         = errors.New("otp invalid")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPAttemptsExceeded = errors.New("otp attempts exceeded")
	ErrOTPAlreadyUsed     = errors.New("otp already used")
	ErrOTPIssueFailed     = errors.New("otp issue failed")
)

// Wallet errors
var (
	ErrWalletShopNotFound       = errors.New("wallet shop not found")
	ErrWalletCreditFailed       = errors.New("wallet credit failed")
	ErrWalletInsufficientFunds  = errors.New("wallet insufficient funds")
	ErrWalletInvalidAmount      = errors.New("wallet amount invalid")
)

// Invoice errors
var (
	ErrInvoiceGenerateFailed = errors.New("invoice generate failed")
	ErrInvoiceUploadFailed   = errors.New("invoice upload failed")
)

// Email errors
var (
	ErrEmailConfigInvalid = errors.New("email config invalid")
	ErrEmailSendFailed    = errors.New("email send failed")
)

// Auth errors
var (
	ErrAuthInvalid            = errors.New("auth input invalid")
	ErrAuthUserNotFound       = errors.New("user not found")
	ErrAuthEmailTaken         = errors.New("email already registered")
	ErrAuthPasswordIncorrect  = errors.New("password incorrect")
	ErrAuthUserDisabled       = errors.New("user disabled")
	ErrAuthTokenInvalid       = errors.New("token invalid")
	ErrAuthPermissionDenied   = errors.New("permission denied")
)

// Shop errors
var (
	ErrShopInvalid      = errors.New("shop input invalid")
	ErrShopNotFound     = errors.New("shop not found")
	ErrShopSlugTaken    = errors.New("shop slug already taken")
	ErrShopCreateFailed = errors.New("shop create failed")
)

// Campaign errors
var (
	ErrCampaignInvalid           = errors.New("campaign input invalid")
	ErrCampaignNotFound          = errors.New("campaign not found")
	ErrCampaignInactive          = errors.New("campaign inactive")
	ErrCampaignKitsExhausted     = errors.New("campaign kits exhausted")
	ErrCampaignAlreadyRegistered = errors.New("campaign phone already registered")
	ErrCampaignRegNotFound       = errors.New("campaign registration not found")
	ErrCampaignKitDelivered      = errors.New("campaign kit already delivered")
)
