package constants

// Order status constants
const (
	OrderStatusPending    = "order-pending"
	OrderStatusProcessing = "order-processing"
	OrderStatusAtPickup   = "order-at-pickup-point"
	OrderStatusCompleted  = "order-completed"
	OrderStatusCancelled  = "order-cancelled"
)

// Payment status constants
const (
	PaymentStatusPending = "payment-pending"
	PaymentStatusSuccess = "payment-success"
	PaymentStatusFailed  = "payment-failed"
	PaymentStatusCash    = "payment-cash"
	PaymentStatusWallet  = "payment-wallet"
)

// Payment gateway constants
const (
	GatewayFlutterwave = "flutterwave"
	GatewayFeexpay     = "feexpay"
	GatewayPaystack    = "paystack"
	GatewayStripe      = "stripe"
	GatewayCash        = "cash"
)

// Pending payment status constants
const (
	PendingPaymentStatusProcessing = "processing"
	PendingPaymentStatusCompleted  = "completed"
	PendingPaymentStatusFailed     = "failed"
	PendingPaymentStatusDead       = "dead"
)

// Payment intent status constants
const (
	PaymentIntentStatusPending = "payment-pending"
	PaymentIntentStatusSuccess = "payment-success"
	PaymentIntentStatusFailed  = "payment-failed"
)

// Wallet transaction constants
const (
	WalletTxnTypeCredit = "credit"
	WalletTxnTypeDebit  = "debit"

	WalletTxnStatusSuccess = "success"
	WalletTxnStatusFailed  = "failed"
)

// Invoice constants
const (
	InvoiceStatusGenerated = "generated"
	InvoiceStatusFailed    = "failed"
)

// User role constants
const (
	RoleClient      = "client"
	RoleStoreOwner  = "store_owner"
	RoleSuperAdmin  = "super_admin"
	RolePickupPoint = "pickup_point"
)

// OTP constants
const (
	OTPLength      = 6
	OTPExpiryHours = 48
	OTPMaxAttempts = 5
)

// Settlement retry constants
const (
	SettlementRetryCap = 10
)

// Product status constants
const (
	ProductStatusPublished = "published"
	ProductStatusDraft     = "draft"
)

// Queue constants
const (
	QueueDefault          = "default"
	TaskSettlementRetry   = "settlement:retry"
	TaskInvoiceGenerate   = "invoice:generate"
	TaskAnalyticsRefresh  = "analytics:refresh"
	TaskCampaignOTPNotify = "campaign:otp_notify"
)

// Cache defaults
const (
	RedisPrefixDefault = "edoto"
)

// Currency constants
const (
	CurrencyDefault = "XOF"
)
