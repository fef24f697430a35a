package service

import (
	"context"
	"strings"
	"time"

	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
)

// CheckoutContact 收货信息表单
type CheckoutContact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	UserID       uint
	ShippingTier string
	CouponCode   string
	Contact      CheckoutContact
}

// CheckoutResult 结算结果
type CheckoutResult struct {
	Order *models.Order `json:"order"`
	Quote PriceQuote    `json:"quote"`
}

// CheckoutService 结算服务
// 只负责校验、计价与提交，不对接任何支付处理器
type CheckoutService struct {
	cart    *CartService
	pricing *PricingService
	coupons *CouponService
	queue   *queue.Client
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(cart *CartService, pricing *PricingService, coupons *CouponService, queueClient *queue.Client) *CheckoutService {
	return &CheckoutService{
		cart:    cart,
		pricing: pricing,
		coupons: coupons,
		queue:   queueClient,
	}
}

// Checkout 结算当前购物车并关闭订单
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.UserID == 0 {
		return nil, ErrUnauthorized
	}
	if err := validateContact(input.Contact); err != nil {
		return nil, err
	}

	fee, err := s.pricing.FeeFor(input.ShippingTier)
	if err != nil {
		return nil, err
	}

	view, err := s.cart.Items(input.UserID)
	if err != nil {
		return nil, err
	}
	if view.OrderID == 0 || len(view.Items) == 0 {
		return nil, ErrCartEmpty
	}

	subtotal := s.pricing.Subtotal(view.Items)

	discount := models.Money{}
	var couponCodes []string
	code := models.NormalizeCouponCode(input.CouponCode)
	if code != "" {
		amount, coupon, err := s.coupons.Evaluate(ctx, code, subtotal, time.Now())
		if err != nil {
			return nil, err
		}
		discount = amount
		couponCodes = []string{coupon.Code}
	}

	quote := s.pricing.Quote(view.Items, fee, discount)

	order, err := s.cart.Submit(input.UserID, SubmitOrderInput{
		CouponCodes:  couponCodes,
		ShippingTier: input.ShippingTier,
		Quote:        quote,
	})
	if err != nil {
		return nil, err
	}

	if err := s.queue.EnqueueOrderSubmittedNotify(queue.OrderSubmittedNotifyPayload{
		OrderID: order.ID,
		UserID:  order.UserID,
		OrderNo: order.OrderNo,
	}); err != nil {
		logger.Warnw("order_submitted_notify_enqueue_failed", "order_id", order.ID, "error", err)
	}

	return &CheckoutResult{Order: order, Quote: quote}, nil
}

func validateContact(contact CheckoutContact) error {
	if strings.TrimSpace(contact.Name) == "" ||
		strings.TrimSpace(contact.Email) == "" ||
		strings.TrimSpace(contact.Address) == "" ||
		strings.TrimSpace(contact.City) == "" ||
		strings.TrimSpace(contact.Zip) == "" {
		return ErrInvalidCheckoutForm
	}
	if !strings.Contains(contact.Email, "@") {
		return ErrInvalidCheckoutForm
	}
	return nil
}
