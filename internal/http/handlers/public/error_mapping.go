package public

import (
	"errors"
	"fmt"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	var belowMin *service.BelowMinimumError
	if errors.As(err, &belowMin) {
		handlershared.RespondErrorWithData(c, response.CodeBadRequest,
			fmt.Sprintf("minimum purchase of %s required", belowMin.Required.StringFixed(2)),
			gin.H{"required": belowMin.Required}, nil)
		return
	}
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

var cartCommonErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "quantity must be at least 1"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrNoOpenOrder, code: response.CodeBadRequest, msg: "no open order"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderNotOpen, code: response.CodeBadRequest, msg: "order is already closed"},
	{target: service.ErrUnauthorized, code: response.CodeUnauthorized, msg: "unauthorized"},
}

var couponCommonErrorRules = []mappedHandlerError{
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "coupon not found"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, msg: "coupon is not active"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, msg: "coupon has expired"},
	{target: service.ErrCouponBelowMinimum, code: response.CodeBadRequest, msg: "minimum purchase not met"},
}

var checkoutExtraErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCheckoutForm, code: response.CodeBadRequest, msg: "checkout form incomplete"},
	{target: service.ErrInvalidShippingTier, code: response.CodeBadRequest, msg: "unknown shipping tier"},
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartCommonErrorRules, response.CodeInternal, "cart operation failed")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err,
		concatMappedHandlerErrors(cartCommonErrorRules, couponCommonErrorRules, checkoutExtraErrorRules),
		response.CodeInternal, "checkout failed")
}

func respondCouponPreviewError(c *gin.Context, err error) {
	respondWithMappedError(c, err,
		concatMappedHandlerErrors(couponCommonErrorRules, cartCommonErrorRules),
		response.CodeInternal, "coupon preview failed")
}
