package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表
// 主键为 UUID 字符串，持久化数量恒 >= 1
type OrderItem struct {
	ID        string         `gorm:"type:varchar(36);primarykey" json:"id"`                    // 行项ID（UUID）
	OrderID   uint           `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID uint           `gorm:"index;not null" json:"product_id"`                         // 商品ID
	Title     string         `gorm:"not null" json:"title"`                                    // 商品标题快照
	Image     string         `gorm:"type:varchar(500)" json:"image"`                           // 图片快照
	UnitPrice Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价快照
	Quantity  int            `gorm:"not null" json:"quantity"`                                 // 数量
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// TotalPrice 行项小计
func (i OrderItem) TotalPrice() Money {
	return NewMoneyFromDecimal(i.UnitPrice.Mul(intToDecimal(i.Quantity)))
}
