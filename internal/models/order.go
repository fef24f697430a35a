package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// Current 为 true 表示该订单是用户的当前购物车镜像；
// 提交后 Current 置为 false 并且四个阶段标记同时置为 true。
// 每个用户最多存在一个 Current 订单。
type Order struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo     string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID      uint           `gorm:"index;not null" json:"user_id"`                             // 用户ID
	Current     bool           `gorm:"not null;default:true;index" json:"current"`                // 是否为当前未提交订单
	Submitted   bool           `gorm:"not null;default:false" json:"order_submitted"`             // 已提交
	Paid        bool           `gorm:"not null;default:false" json:"order_paid"`                  // 已支付
	Fulfilled   bool           `gorm:"not null;default:false" json:"order_fulfilled"`             // 已配货
	Delivered   bool           `gorm:"not null;default:false" json:"order_delivered"`             // 已送达
	CouponCodes StringArray    `gorm:"type:json" json:"coupon_codes"`                             // 应用的优惠码
	Subtotal    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // 商品小计快照
	ShippingFee Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"` // 运费快照
	TaxAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`   // 税费快照
	Discount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`     // 优惠金额快照
	Total       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total"`        // 实付金额快照
	ShippingTier string        `gorm:"type:varchar(20)" json:"shipping_tier,omitempty"`           // 配送档位
	SubmittedAt *time.Time     `gorm:"index" json:"submitted_at"`                                 // 提交时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
