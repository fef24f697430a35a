package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/storefront-next/internal/models"
)

const couponCacheTTL = 5 * time.Minute

func couponKey(code string) string {
	return fmt.Sprintf("coupon:%s", code)
}

// GetCoupon 获取优惠券缓存
func GetCoupon(ctx context.Context, code string) (*models.Coupon, bool, error) {
	if code == "" {
		return nil, false, nil
	}
	var coupon models.Coupon
	hit, err := GetJSON(ctx, couponKey(code), &coupon)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &coupon, true, nil
}

// SetCoupon 写入优惠券缓存
func SetCoupon(ctx context.Context, coupon *models.Coupon) error {
	if coupon == nil || coupon.Code == "" {
		return nil
	}
	return SetJSON(ctx, couponKey(coupon.Code), coupon, couponCacheTTL)
}

// DelCoupon 删除优惠券缓存
func DelCoupon(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}
	return Del(ctx, couponKey(code))
}
