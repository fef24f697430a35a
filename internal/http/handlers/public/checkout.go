package public

import (
	"time"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	ShippingTier string `json:"shipping_tier" binding:"required"`
	CouponCode   string `json:"coupon_code"`
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Address      string `json:"address" binding:"required"`
	City         string `json:"city" binding:"required"`
	Zip          string `json:"zip" binding:"required"`
}

// Checkout 结算当前购物车并关闭订单
func (h *Handler) Checkout(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.CheckoutService.Checkout(c.Request.Context(), service.CheckoutInput{
		UserID:       id,
		ShippingTier: req.ShippingTier,
		CouponCode:   req.CouponCode,
		Contact: service.CheckoutContact{
			Name:    req.Name,
			Email:   req.Email,
			Address: req.Address,
			City:    req.City,
			Zip:     req.Zip,
		},
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, result)
}

// CouponPreviewRequest 优惠码试算请求
type CouponPreviewRequest struct {
	Code         string `json:"code" binding:"required"`
	ShippingTier string `json:"shipping_tier"`
}

// PreviewCoupon 在当前购物车上试算优惠码，不改动订单
func (h *Handler) PreviewCoupon(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}
	var req CouponPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	view, err := h.CartService.Items(id)
	if err != nil {
		respondCouponPreviewError(c, err)
		return
	}
	if view.OrderID == 0 || len(view.Items) == 0 {
		respondError(c, response.CodeBadRequest, "cart is empty", nil)
		return
	}

	subtotal := h.PricingService.Subtotal(view.Items)
	discount, coupon, err := h.CouponService.Evaluate(c.Request.Context(), req.Code, subtotal, time.Now())
	if err != nil {
		respondCouponPreviewError(c, err)
		return
	}

	if req.ShippingTier != "" {
		fee, feeErr := h.PricingService.FeeFor(req.ShippingTier)
		if feeErr != nil {
			respondError(c, response.CodeBadRequest, "unknown shipping tier", nil)
			return
		}
		quote := h.PricingService.Quote(view.Items, fee, discount)
		response.Success(c, gin.H{
			"code":     coupon.Code,
			"type":     coupon.Type,
			"discount": discount,
			"quote":    quote,
		})
		return
	}

	response.Success(c, gin.H{
		"code":     coupon.Code,
		"type":     coupon.Type,
		"discount": discount,
		"subtotal": subtotal,
	})
}
