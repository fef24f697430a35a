package service

import (
	"sort"
	"strings"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

const defaultTaxRate = 0.08

// PriceQuote 计价结果
// Total = Subtotal + ShippingFee + Tax - Discount，允许为负（不做下限裁剪）
type PriceQuote struct {
	Subtotal    models.Money `json:"subtotal"`
	ShippingFee models.Money `json:"shipping_fee"`
	Tax         models.Money `json:"tax"`
	Discount    models.Money `json:"discount"`
	Total       models.Money `json:"total"`
}

// ShippingTier 配送档位
type ShippingTier struct {
	Name string       `json:"name"`
	Fee  models.Money `json:"fee"`
}

// PricingService 计价服务
type PricingService struct {
	taxRate decimal.Decimal
	tiers   map[string]models.Money
}

// NewPricingService 创建计价服务
func NewPricingService(cfg *config.PricingConfig) *PricingService {
	taxRate := decimal.NewFromFloat(defaultTaxRate)
	tiers := map[string]models.Money{
		constants.ShippingTierStandard:  models.NewMoneyFromFloat(5),
		constants.ShippingTierExpress:   models.NewMoneyFromFloat(12),
		constants.ShippingTierOvernight: models.NewMoneyFromFloat(23),
	}
	if cfg != nil {
		if cfg.TaxRate > 0 {
			taxRate = decimal.NewFromFloat(cfg.TaxRate)
		}
		if len(cfg.ShippingTiers) > 0 {
			tiers = make(map[string]models.Money, len(cfg.ShippingTiers))
			for name, fee := range cfg.ShippingTiers {
				tiers[strings.ToLower(strings.TrimSpace(name))] = models.NewMoneyFromFloat(fee)
			}
		}
	}
	return &PricingService{taxRate: taxRate, tiers: tiers}
}

// TaxRate 当前税率
func (s *PricingService) TaxRate() decimal.Decimal {
	return s.taxRate
}

// Tiers 配送档位列表（按名称排序）
func (s *PricingService) Tiers() []ShippingTier {
	names := make([]string, 0, len(s.tiers))
	for name := range s.tiers {
		names = append(names, name)
	}
	sort.Strings(names)
	tiers := make([]ShippingTier, 0, len(names))
	for _, name := range names {
		tiers = append(tiers, ShippingTier{Name: name, Fee: s.tiers[name]})
	}
	return tiers
}

// FeeFor 查询配送档位运费
func (s *PricingService) FeeFor(tier string) (models.Money, error) {
	fee, ok := s.tiers[strings.ToLower(strings.TrimSpace(tier))]
	if !ok {
		return models.Money{}, ErrInvalidShippingTier
	}
	return fee, nil
}

// Subtotal 计算商品小计（Σ 单价 × 数量）
func (s *PricingService) Subtotal(items []models.OrderItem) models.Money {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return models.NewMoneyFromDecimal(sum)
}

// Quote 计算完整报价
// 中间运算保持 decimal 精度，仅在 Money 边界四舍五入到 2 位
func (s *PricingService) Quote(items []models.OrderItem, shippingFee, discount models.Money) PriceQuote {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	tax := subtotal.Mul(s.taxRate)
	total := subtotal.Add(shippingFee.Decimal).Add(tax).Sub(discount.Decimal)
	return PriceQuote{
		Subtotal:    models.NewMoneyFromDecimal(subtotal),
		ShippingFee: shippingFee,
		Tax:         models.NewMoneyFromDecimal(tax),
		Discount:    discount,
		Total:       models.NewMoneyFromDecimal(total),
	}
}
