package public

import (
	"errors"

	"github.com/edoto/marketplace/internal/http/handlers/shared"
	"github.com/edoto/marketplace/internal/http/response"
	"github.com/edoto/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError binds a sentinel error to its API response.
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			shared.RespondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	shared.RespondError(c, fallbackCode, fallbackMsg, err)
}

var authErrorRules = []mappedHandlerError{
	{target: service.ErrAuthInvalid, code: response.CodeBadRequest, msg: "invalid credentials input"},
	{target: service.ErrAuthEmailTaken, code: response.CodeConflict, msg: "email already registered"},
	{target: service.ErrAuthUserNotFound, code: response.CodeBadRequest, msg: "email or password incorrect"},
	{target: service.ErrAuthPasswordIncorrect, code: response.CodeBadRequest, msg: "email or password incorrect"},
	{target: service.ErrAuthUserDisabled, code: response.CodeForbidden, msg: "account disabled"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderInvalid, code: response.CodeBadRequest, msg: "order input invalid"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "order status invalid"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: "product unavailable"},
	{target: service.ErrProductOutOfStock, code: response.CodeBadRequest, msg: "product out of stock"},
	{target: service.ErrPickupPointInvalid, code: response.CodeBadRequest, msg: "pickup point invalid"},
	{target: service.ErrGatewayNotSupported, code: response.CodeBadRequest, msg: "payment gateway not supported"},
	{target: service.ErrGatewayConfigInvalid, code: response.CodeInternal, msg: "payment gateway unavailable"},
	{target: service.ErrGatewayRequestFailed, code: response.CodeInternal, msg: "payment gateway unavailable"},
	{target: service.ErrGatewayResponseInvalid, code: response.CodeInternal, msg: "payment gateway unavailable"},
	{target: service.ErrAuthPermissionDenied, code: response.CodeForbidden, msg: "permission denied"},
}

var paymentErrorRules = []mappedHandlerError{
	{target: service.ErrSettlementInvalid, code: response.CodeBadRequest, msg: "payment reference invalid"},
	{target: service.ErrPaymentNotConfirmed, code: response.CodeBadRequest, msg: "payment not confirmed"},
	{target: service.ErrPaymentAmountMismatch, code: response.CodeBadRequest, msg: "payment amount mismatch"},
	{target: service.ErrPaymentCurrencyMismatch, code: response.CodeBadRequest, msg: "payment currency mismatch"},
}

var otpErrorRules = []mappedHandlerError{
	{target: service.ErrOTPInvalid, code: response.CodeBadRequest, msg: "code invalid"},
	{target: service.ErrOTPExpired, code: response.CodeBadRequest, msg: "code expired"},
	{target: service.ErrOTPAttemptsExceeded, code: response.CodeBadRequest, msg: "too many attempts"},
	{target: service.ErrOTPAlreadyUsed, code: response.CodeBadRequest, msg: "code already used"},
}

var campaignErrorRules = []mappedHandlerError{
	{target: service.ErrCampaignInvalid, code: response.CodeBadRequest, msg: "campaign input invalid"},
	{target: service.ErrCampaignNotFound, code: response.CodeNotFound, msg: "campaign not found"},
	{target: service.ErrCampaignInactive, code: response.CodeBadRequest, msg: "campaign not active"},
	{target: service.ErrCampaignKitsExhausted, code: response.CodeBadRequest, msg: "no kits left"},
	{target: service.ErrCampaignAlreadyRegistered, code: response.CodeConflict, msg: "phone already registered"},
	{target: service.ErrCampaignRegNotFound, code: response.CodeNotFound, msg: "registration not found"},
	{target: service.ErrCampaignKitDelivered, code: response.CodeBadRequest, msg: "kit already delivered"},
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
