package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                // 主键
	Title        string         `gorm:"not null" json:"title"`                               // 商品标题
	Description  string         `gorm:"type:text" json:"description"`                        // 商品描述
	Category     string         `gorm:"index" json:"category"`                               // 分类
	Image        string         `gorm:"type:varchar(500)" json:"image"`                      // 图片路径
	Price        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`  // 单价
	RatingRate   float64        `gorm:"not null;default:0" json:"rating_rate"`               // 评分快照
	RatingCount  int            `gorm:"not null;default:0" json:"rating_count"`              // 评分人数快照
	IsActive     bool           `gorm:"default:true;index" json:"is_active"`                 // 是否上架
	Discontinued bool           `gorm:"not null;default:false;index" json:"discontinued"`    // 是否停售
	CreatedBy    uint           `gorm:"index" json:"created_by,omitempty"`                   // 创建者（管理员ID）
	SortOrder    int            `gorm:"default:0;index" json:"sort_order"`                   // 排序权重
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                          // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
