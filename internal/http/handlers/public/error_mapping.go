package public

import (
	"errors"

	"github.com/facturis-next/internal/http/response"
	"github.com/facturis-next/internal/postal"
	"github.com/facturis-next/internal/service"
	"github.com/facturis-next/internal/smartbill"
	"github.com/facturis-next/internal/trendyol"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
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

// credentialErrorRules 凭据未配置或不可用时的通用映射
var credentialErrorRules = []mappedHandlerError{
	{target: service.ErrIncompleteTrendyolCredentials, code: response.CodeBadRequest, msg: "trendyol credentials not configured"},
	{target: service.ErrIncompleteSmartBillCredentials, code: response.CodeBadRequest, msg: "smartbill credentials not configured"},
	{target: service.ErrCredentialsCorrupted, code: response.CodeInternal, msg: "stored credentials cannot be decrypted"},
}

// upstreamErrorRules 上游接口失败的通用映射
var upstreamErrorRules = []mappedHandlerError{
	{target: trendyol.ErrRequestFailed, code: response.CodeUpstream, msg: "trendyol request failed"},
	{target: trendyol.ErrResponseInvalid, code: response.CodeUpstream, msg: "trendyol response invalid"},
	{target: smartbill.ErrRequestFailed, code: response.CodeUpstream, msg: "smartbill request failed"},
	{target: postal.ErrNotFound, code: response.CodeNotFound, msg: "postal code not found"},
}

// invoiceErrorRules 开票流程的业务映射
var invoiceErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrInvoiceNotFound, code: response.CodeNotFound, msg: "invoice record not found"},
	{target: service.ErrDuplicateInvoice, code: response.CodeConflict, msg: "invoice already exists for this order"},
	{target: service.ErrNoInvoiceSeries, code: response.CodeBadRequest, msg: "no invoice series available"},
	{target: smartbill.ErrInvoiceNotFound, code: response.CodeNotFound, msg: "invoice not found"},
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "not found"},
}

func respondOrderError(c *gin.Context, err error) {
	rules := concatMappedHandlerErrors(credentialErrorRules, upstreamErrorRules, []mappedHandlerError{
		{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
		{target: service.ErrNotFound, code: response.CodeNotFound, msg: "not found"},
	})
	respondWithMappedError(c, err, rules, response.CodeInternal, "order query failed")
}

func respondInvoiceError(c *gin.Context, err error) {
	rules := concatMappedHandlerErrors(credentialErrorRules, upstreamErrorRules, invoiceErrorRules)
	respondWithMappedError(c, err, rules, response.CodeInternal, "invoice operation failed")
}
