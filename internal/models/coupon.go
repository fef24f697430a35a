package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// 优惠券类型
const (
	CouponTypeFixed   = "fixed"
	CouponTypePercent = "percent"
)

// Coupon 优惠券
// MinPurchaseSet 为 false 时 MinPurchase 无意义；
// ExpiresAt 为 nil 表示永不过期
type Coupon struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // 主键
	Code           string         `gorm:"uniqueIndex;not null" json:"code"`                             // 优惠码（大写存储）
	Type           string         `gorm:"not null" json:"type"`                                         // 类型（fixed/percent）
	Value          Money          `gorm:"type:decimal(20,2);not null" json:"value"`                     // 数值（固定金额或百分比）
	MinPurchase    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_purchase"`    // 使用门槛
	MinPurchaseSet bool           `gorm:"not null;default:false" json:"min_purchase_set"`               // 是否启用使用门槛
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at"`                                      // 失效时间（nil 表示不过期）
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`                       // 是否启用
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// NormalizeCouponCode 统一优惠码为大写无空白格式
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponDocument 优惠券导入文档
// 历史数据存在 snake_case 与 camelCase 两种字段拼写，
// 解码时在边界处统一归一化，内部只保留一种 schema
type CouponDocument struct {
	Code           string
	Type           string
	Value          Money
	MinPurchase    Money
	MinPurchaseSet bool
	ExpiresAt      *time.Time
	IsActive       bool
}

type couponDocumentRaw struct {
	Code         string            `json:"code"`
	Type         string            `json:"type"`
	DiscountType string            `json:"discount_type"`
	Value        *Money            `json:"value"`
	Discount     *Money            `json:"discount"`
	IsActive     *bool             `json:"isActive"`
	IsActiveAlt  *bool             `json:"is_active"`
	Expiry       *expiryFieldRaw   `json:"expiryDate"`
	ExpiryAlt    *expiryFieldRaw   `json:"expiry_date"`
	MinPurchase  *minAmountRaw     `json:"minPurchase"`
	MinAlt       *minAmountRaw     `json:"min_purchase"`
}

type expiryFieldRaw struct {
	IsSet    *bool  `json:"isSet"`
	IsSetAlt *bool  `json:"is_set"`
	Date     string `json:"date"`
	DateAlt  string `json:"time"`
}

type minAmountRaw struct {
	IsSet     *bool  `json:"isSet"`
	IsSetAlt  *bool  `json:"is_set"`
	Amount    *Money `json:"amount"`
	AmountAlt *Money `json:"value"`
}

// UnmarshalJSON 容忍历史拼写的解码
func (d *CouponDocument) UnmarshalJSON(b []byte) error {
	var raw couponDocumentRaw
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	code := NormalizeCouponCode(raw.Code)
	if code == "" {
		return fmt.Errorf("coupon document missing code")
	}

	couponType := strings.ToLower(strings.TrimSpace(firstNonEmpty(raw.Type, raw.DiscountType)))
	switch couponType {
	case "percent", "percentage":
		couponType = CouponTypePercent
	case "fixed", "amount":
		couponType = CouponTypeFixed
	default:
		return fmt.Errorf("coupon document %s: unknown type %q", code, couponType)
	}

	value := firstMoney(raw.Value, raw.Discount)
	if value == nil {
		return fmt.Errorf("coupon document %s: missing value", code)
	}

	active := true
	if raw.IsActive != nil {
		active = *raw.IsActive
	} else if raw.IsActiveAlt != nil {
		active = *raw.IsActiveAlt
	}

	d.Code = code
	d.Type = couponType
	d.Value = *value
	d.IsActive = active
	d.ExpiresAt = nil
	d.MinPurchase = Money{}
	d.MinPurchaseSet = false

	expiry := raw.Expiry
	if expiry == nil {
		expiry = raw.ExpiryAlt
	}
	if expiry != nil && boolField(expiry.IsSet, expiry.IsSetAlt) {
		dateText := strings.TrimSpace(firstNonEmpty(expiry.Date, expiry.DateAlt))
		if dateText != "" {
			parsed, err := parseCouponTime(dateText)
			if err != nil {
				return fmt.Errorf("coupon document %s: %w", code, err)
			}
			d.ExpiresAt = &parsed
		}
	}

	minPurchase := raw.MinPurchase
	if minPurchase == nil {
		minPurchase = raw.MinAlt
	}
	if minPurchase != nil && boolField(minPurchase.IsSet, minPurchase.IsSetAlt) {
		amount := firstMoney(minPurchase.Amount, minPurchase.AmountAlt)
		if amount != nil {
			d.MinPurchase = *amount
			d.MinPurchaseSet = true
		}
	}

	return nil
}

// ToCoupon 转换为持久化模型
func (d CouponDocument) ToCoupon() Coupon {
	return Coupon{
		Code:           d.Code,
		Type:           d.Type,
		Value:          d.Value,
		MinPurchase:    d.MinPurchase,
		MinPurchaseSet: d.MinPurchaseSet,
		ExpiresAt:      d.ExpiresAt,
		IsActive:       d.IsActive,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstMoney(values ...*Money) *Money {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func boolField(values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return false
}

func parseCouponTime(text string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable expiry date %q", text)
}
