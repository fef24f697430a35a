package repository

import (
	"errors"
	"fmt"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	GetCurrentByUser(userID uint) (*models.Order, error)
	ListByIDs(ids []uint) ([]models.Order, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	ReplaceItems(orderID uint, items []models.OrderItem) error
	MarkSubmitted(id uint, updates map[string]interface{}) error
	UpdateStageFlags(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项（同一事务）
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户订单详情
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetCurrentByUser 获取用户当前未提交订单
func (r *GormOrderRepository) GetCurrentByUser(userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").
		Where("user_id = ? AND current = ?", userID, true).
		Order("id DESC").
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByIDs 批量获取订单，保持传入的 ID 顺序
func (r *GormOrderRepository) ListByIDs(ids []uint) ([]models.Order, error) {
	if len(ids) == 0 {
		return []models.Order{}, nil
	}
	var orders []models.Order
	if err := r.db.Preload("Items").Where("id IN ?", ids).Find(&orders).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Order, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
	}
	sorted := make([]models.Order, 0, len(orders))
	for _, id := range ids {
		if order, ok := byID[id]; ok {
			sorted = append(sorted, order)
		}
	}
	return sorted, nil
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.Current != nil {
		query = query.Where("current = ?", *filter.Current)
	}
	if filter.Submitted != nil {
		query = query.Where("submitted = ?", *filter.Submitted)
	}
	if filter.Paid != nil {
		query = query.Where("paid = ?", *filter.Paid)
	}
	if filter.Fulfilled != nil {
		query = query.Where("fulfilled = ?", *filter.Fulfilled)
	}
	if filter.Delivered != nil {
		query = query.Where("delivered = ?", *filter.Delivered)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Preload("Items").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ReplaceItems 整体替换订单项（同一事务）
func (r *GormOrderRepository) ReplaceItems(orderID uint, items []models.OrderItem) error {
	if orderID == 0 {
		return fmt.Errorf("replace items: missing order id")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("order_id = ?", orderID).
			Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = orderID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkSubmitted 提交订单：单条 UPDATE 关闭当前订单并点亮全部阶段标记
func (r *GormOrderRepository) MarkSubmitted(id uint, updates map[string]interface{}) error {
	merged := map[string]interface{}{
		"current":   false,
		"submitted": true,
		"paid":      true,
		"fulfilled": true,
		"delivered": true,
	}
	for k, v := range updates {
		merged[k] = v
	}
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND current = ?", id, true).
		Updates(merged)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStageFlags 管理端阶段标记更新（仅作用于已关闭订单）
func (r *GormOrderRepository) UpdateStageFlags(id uint, updates map[string]interface{}) error {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND current = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
