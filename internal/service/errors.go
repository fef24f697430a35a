package service

import (
	"errors"
	"fmt"

	"github.com/storefront-next/internal/models"
)

// 业务错误定义，handler 层通过 errors.Is 映射为响应码
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserDisabled         = errors.New("user disabled")
	ErrEmailExists          = errors.New("email already registered")
	ErrWeakPassword         = errors.New("password does not meet policy")
	ErrUserNotFound         = errors.New("user not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrProductNotAvailable  = errors.New("product not available")
	ErrCouponNotFound       = errors.New("coupon not found")
	ErrCouponInactive       = errors.New("coupon inactive")
	ErrCouponExpired        = errors.New("coupon expired")
	ErrCouponBelowMinimum   = errors.New("coupon below minimum purchase")
	ErrCouponExists         = errors.New("coupon code already exists")
	ErrCouponInvalidValue   = errors.New("coupon value invalid")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotOpen         = errors.New("order not open")
	ErrOrderStillOpen       = errors.New("order still open")
	ErrNoOpenOrder          = errors.New("no open order")
	ErrCartEmpty            = errors.New("cart empty")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidShippingTier  = errors.New("invalid shipping tier")
	ErrInvalidCheckoutForm  = errors.New("invalid checkout form")
)

// BelowMinimumError 优惠券门槛错误，携带门槛金额
// errors.Is(err, ErrCouponBelowMinimum) 恒为真
type BelowMinimumError struct {
	Required models.Money
}

// Error 实现 error 接口
func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("coupon requires a minimum purchase of %s", e.Required)
}

// Is 支持 errors.Is 映射
func (e *BelowMinimumError) Is(target error) bool {
	return target == ErrCouponBelowMinimum
}
