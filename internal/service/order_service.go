package service

import (
	"time"

	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
)

// OrderView 订单视图，附带展示状态
type OrderView struct {
	models.Order
	Status string `json:"status"`
}

// StageUpdateInput 管理端阶段标记更新输入
// 只允许调整 paid / fulfilled / delivered，提交与关闭状态不可变
type StageUpdateInput struct {
	Paid      *bool
	Fulfilled *bool
	Delivered *bool
}

// OrderService 订单服务
type OrderService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, userRepo repository.UserRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo, userRepo: userRepo}
}

// History 用户订单历史，按用户索引顺序返回（新订单在前）
func (s *OrderService) History(userID uint) ([]OrderView, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	orders, err := s.orderRepo.ListByIDs(user.OrderIDs)
	if err != nil {
		return nil, err
	}
	return toOrderViews(orders), nil
}

// GetForUser 用户订单详情
func (s *OrderService) GetForUser(userID, orderID uint) (*OrderView, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	view := OrderView{Order: *order, Status: StatusLabel(order)}
	return &view, nil
}

// ListAdmin 管理端订单列表
func (s *OrderService) ListAdmin(filter repository.OrderListFilter) ([]OrderView, int64, error) {
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, err
	}
	return toOrderViews(orders), total, nil
}

// UpdateStages 更新已关闭订单的阶段标记
// 打开中的订单拒绝修改，关闭状态不可回退
func (s *OrderService) UpdateStages(orderID uint, input StageUpdateInput) (*OrderView, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Current {
		return nil, ErrOrderStillOpen
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if input.Paid != nil {
		updates["paid"] = *input.Paid
	}
	if input.Fulfilled != nil {
		updates["fulfilled"] = *input.Fulfilled
	}
	if input.Delivered != nil {
		updates["delivered"] = *input.Delivered
	}
	if err := s.orderRepo.UpdateStageFlags(orderID, updates); err != nil {
		return nil, err
	}

	updated, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}
	view := OrderView{Order: *updated, Status: StatusLabel(updated)}
	return &view, nil
}

func toOrderViews(orders []models.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, OrderView{Order: orders[i], Status: StatusLabel(&orders[i])})
	}
	return views
}
