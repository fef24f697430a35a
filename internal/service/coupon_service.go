package service

import (
	"context"
	"sync"
	"time"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/shopspring/decimal"
)

const (
	couponFilterCapacity = 100000
	couponFilterFPRate   = 0.01
)

// CouponService 优惠券服务
// 内置优惠码布隆过滤器，未知码在查库前直接短路
type CouponService struct {
	couponRepo repository.CouponRepository
	queue      *queue.Client

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, queueClient *queue.Client) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		queue:      queueClient,
		filter:     bloom.NewWithEstimates(couponFilterCapacity, couponFilterFPRate),
	}
}

// WarmFilter 预热布隆过滤器（启动时调用）
func (s *CouponService) WarmFilter() error {
	codes, err := s.couponRepo.ListCodes()
	if err != nil {
		return err
	}
	filter := bloom.NewWithEstimates(couponFilterCapacity, couponFilterFPRate)
	for _, code := range codes {
		filter.AddString(models.NormalizeCouponCode(code))
	}
	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()
	logger.Infow("coupon_filter_warmed", "codes", len(codes))
	return nil
}

// Evaluate 校验优惠码并计算折扣金额
// 拒绝顺序：不存在 → 未启用 → 已过期 → 未达门槛；
// 折扣金额不超过小计（固定金额券按小计封顶）
func (s *CouponService) Evaluate(ctx context.Context, code string, subtotal models.Money, now time.Time) (models.Money, *models.Coupon, error) {
	normalized := models.NormalizeCouponCode(code)
	if normalized == "" {
		return models.Money{}, nil, ErrCouponNotFound
	}

	s.mu.RLock()
	known := s.filter.TestString(normalized)
	s.mu.RUnlock()
	if !known {
		return models.Money{}, nil, ErrCouponNotFound
	}

	coupon, err := s.lookup(ctx, normalized)
	if err != nil {
		return models.Money{}, nil, err
	}
	if coupon == nil {
		return models.Money{}, nil, ErrCouponNotFound
	}
	if !coupon.IsActive {
		return models.Money{}, nil, ErrCouponInactive
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		s.deactivateExpired(ctx, coupon)
		return models.Money{}, nil, ErrCouponExpired
	}
	if coupon.MinPurchaseSet && subtotal.LessThan(coupon.MinPurchase.Decimal) {
		return models.Money{}, nil, &BelowMinimumError{Required: coupon.MinPurchase}
	}

	var raw decimal.Decimal
	switch coupon.Type {
	case models.CouponTypePercent:
		raw = subtotal.Mul(coupon.Value.Decimal).Div(decimal.NewFromInt(100))
	default:
		raw = coupon.Value.Decimal
	}
	if raw.GreaterThan(subtotal.Decimal) {
		raw = subtotal.Decimal
	}
	if raw.IsNegative() {
		raw = decimal.Zero
	}
	return models.NewMoneyFromDecimal(raw), coupon, nil
}

// GetByCode 查询优惠券
func (s *CouponService) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.lookup(ctx, models.NormalizeCouponCode(code))
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// Create 创建优惠券
func (s *CouponService) Create(coupon *models.Coupon) error {
	coupon.Code = models.NormalizeCouponCode(coupon.Code)
	if coupon.Code == "" {
		return ErrCouponNotFound
	}
	if err := validateCouponAmounts(coupon); err != nil {
		return err
	}
	existing, err := s.couponRepo.GetByCode(coupon.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrCouponExists
	}
	if err := s.couponRepo.Create(coupon); err != nil {
		return err
	}
	s.mu.Lock()
	s.filter.AddString(coupon.Code)
	s.mu.Unlock()
	return nil
}

// Update 更新优惠券
func (s *CouponService) Update(coupon *models.Coupon) error {
	coupon.Code = models.NormalizeCouponCode(coupon.Code)
	if err := validateCouponAmounts(coupon); err != nil {
		return err
	}
	if err := s.couponRepo.Update(coupon); err != nil {
		return err
	}
	if err := cache.DelCoupon(context.Background(), coupon.Code); err != nil {
		logger.Warnw("coupon_cache_invalidate_failed", "code", coupon.Code, "error", err)
	}
	s.mu.Lock()
	s.filter.AddString(coupon.Code)
	s.mu.Unlock()
	return nil
}

// Delete 删除优惠券
// 布隆过滤器不支持删除，残留的码由查库兜底
func (s *CouponService) Delete(id uint) error {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return err
	}
	if coupon == nil {
		return ErrCouponNotFound
	}
	if err := s.couponRepo.Delete(id); err != nil {
		return err
	}
	if err := cache.DelCoupon(context.Background(), coupon.Code); err != nil {
		logger.Warnw("coupon_cache_invalidate_failed", "code", coupon.Code, "error", err)
	}
	return nil
}

// List 优惠券列表
func (s *CouponService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(filter)
}

// Import 导入优惠券文档（已存在的码跳过）
func (s *CouponService) Import(documents []models.CouponDocument) (int, error) {
	imported := 0
	for _, doc := range documents {
		coupon := doc.ToCoupon()
		err := s.Create(&coupon)
		if err != nil {
			if err == ErrCouponExists {
				continue
			}
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// validateCouponAmounts 折扣数值与使用门槛不允许为负
func validateCouponAmounts(coupon *models.Coupon) error {
	if coupon.Value.IsNegative() || coupon.MinPurchase.IsNegative() {
		return ErrCouponInvalidValue
	}
	return nil
}

func (s *CouponService) lookup(ctx context.Context, code string) (*models.Coupon, error) {
	if code == "" {
		return nil, nil
	}
	if cached, hit, err := cache.GetCoupon(ctx, code); err == nil && hit {
		return cached, nil
	} else if err != nil {
		logger.Warnw("coupon_cache_read_failed", "code", code, "error", err)
	}
	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon != nil {
		if err := cache.SetCoupon(ctx, coupon); err != nil {
			logger.Warnw("coupon_cache_write_failed", "code", code, "error", err)
		}
	}
	return coupon, nil
}

// deactivateExpired 过期券停用，次要写失败只记录不影响主流程
func (s *CouponService) deactivateExpired(ctx context.Context, coupon *models.Coupon) {
	if s.queue.Enabled() {
		err := s.queue.EnqueueCouponDeactivate(queue.CouponDeactivatePayload{
			CouponID: coupon.ID,
			Code:     coupon.Code,
		})
		if err == nil {
			return
		}
		logger.Warnw("coupon_deactivate_enqueue_failed", "code", coupon.Code, "error", err)
	}
	if err := s.couponRepo.Deactivate(coupon.ID); err != nil {
		logger.Warnw("coupon_deactivate_failed", "code", coupon.Code, "error", err)
		return
	}
	if err := cache.DelCoupon(ctx, coupon.Code); err != nil {
		logger.Warnw("coupon_cache_invalidate_failed", "code", coupon.Code, "error", err)
	}
}
