package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/google/uuid"
)

// CartView 购物车视图
type CartView struct {
	OrderID uint               `json:"order_id"`
	OrderNo string             `json:"order_no,omitempty"`
	Items   []models.OrderItem `json:"items"`
}

// SubmitOrderInput 提交订单输入
type SubmitOrderInput struct {
	CouponCodes  []string
	ShippingTier string
	Quote        PriceQuote
}

// CartService 购物车与当前订单的对账服务
// 内存镜像只在持久化写成功后更新；同一用户的变更经会话锁串行化
type CartService struct {
	sessions    *SessionManager
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	broker      *AuthBroker
}

// NewCartService 创建购物车服务
func NewCartService(
	sessions *SessionManager,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	broker *AuthBroker,
) *CartService {
	return &CartService{
		sessions:    sessions,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		broker:      broker,
	}
}

// StartAuthListener 消费登录事件：登录时预热会话，退出时清空内存镜像
func (s *CartService) StartAuthListener(ctx context.Context) {
	events := s.broker.Subscribe(ctx)
	go func() {
		for event := range events {
			if event.UserID == 0 {
				continue
			}
			if event.SignedIn {
				if _, err := s.Items(event.UserID); err != nil {
					logger.Warnw("cart_session_hydrate_failed", "user_id", event.UserID, "error", err)
				}
				continue
			}
			s.sessions.Reset(event.UserID)
			logger.Infow("cart_session_reset", "user_id", event.UserID)
		}
	}()
}

// Items 获取购物车视图（必要时从当前订单水合）
func (s *CartService) Items(userID uint) (*CartView, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	session := s.sessions.Session(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := s.hydrateLocked(session); err != nil {
		return nil, err
	}
	return &CartView{OrderID: session.orderID, Items: session.snapshot()}, nil
}

// AddItem 添加商品；同商品合并数量，首个商品触发当前订单的懒创建
func (s *CartService) AddItem(userID, productID uint, quantity int) (*CartView, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsActive || product.Discontinued {
		return nil, ErrProductNotAvailable
	}

	session := s.sessions.Session(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := s.hydrateLocked(session); err != nil {
		return nil, err
	}

	items := mergeItem(session.snapshot(), product, quantity)

	if session.orderID == 0 {
		order := &models.Order{
			OrderNo: generateOrderNo(),
			UserID:  userID,
			Current: true,
		}
		if err := s.orderRepo.Create(order, items); err != nil {
			return nil, err
		}
		session.orderID = order.ID
		session.items = items
		s.prependOrderIndex(userID, order.ID)
		logger.Infow("cart_order_created", "user_id", userID, "order_id", order.ID, "order_no", order.OrderNo)
		return &CartView{OrderID: session.orderID, Items: session.snapshot()}, nil
	}

	if err := s.orderRepo.ReplaceItems(session.orderID, items); err != nil {
		return nil, err
	}
	session.items = items
	return &CartView{OrderID: session.orderID, Items: session.snapshot()}, nil
}

// UpdateQuantity 修改行项数量；小于 1 直接拒绝，绝不隐式删除。
// 行项不存在时原样返回视图，不视为错误
func (s *CartService) UpdateQuantity(userID uint, itemID string, quantity int) (*CartView, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	session := s.sessions.Session(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := s.hydrateLocked(session); err != nil {
		return nil, err
	}

	items := session.snapshot()
	found := false
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return &CartView{OrderID: session.orderID, Items: session.snapshot()}, nil
	}

	if err := s.orderRepo.ReplaceItems(session.orderID, items); err != nil {
		return nil, err
	}
	session.items = items
	return &CartView{OrderID: session.orderID, Items: session.snapshot()}, nil
}

// RemoveItem 删除行项；无打开订单时拒绝，重复删除视为成功
func (s *CartService) RemoveItem(userID uint, itemID string) (*CartView, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}

	session := s.sessions.Session(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := s.hydrateLocked(session); err != nil {
		return nil, err
	}
	if session.orderID == 0 {
		return nil, ErrNoOpenOrder
	}

	items := session.snapshot()
	filtered := items[:0]
	removed := false
	for _, item := range items {
		if item.ID == itemID {
			removed = true
			continue
		}
		filtered = append(filtered, item)
	}
	if !removed {
		return &CartView{OrderID: session.orderID, Items: session.snapshot()}, nil
	}

	if err := s.orderRepo.ReplaceItems(session.orderID, filtered); err != nil {
		return nil, err
	}
	session.items = filtered
	return &CartView{OrderID: session.orderID, Items: session.snapshot()}, nil
}

// LoadFromOrder 将历史未提交订单装入会话
// 前置条件：订单属于该用户且仍处于打开状态
func (s *CartService) LoadFromOrder(userID, orderID uint) (*CartView, error) {
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
	if !IsOpen(order) {
		return nil, ErrOrderNotOpen
	}

	session := s.sessions.Session(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	session.orderID = order.ID
	session.items = order.Items
	session.hydrated = true
	return &CartView{OrderID: session.orderID, OrderNo: order.OrderNo, Items: session.snapshot()}, nil
}

// Submit 关闭当前订单：单条 UPDATE 固化金额快照并点亮阶段标记
// 成功后仅清空内存镜像，历史订单与用户索引保持不变
func (s *CartService) Submit(userID uint, input SubmitOrderInput) (*models.Order, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}

	session := s.sessions.Session(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := s.hydrateLocked(session); err != nil {
		return nil, err
	}
	if session.orderID == 0 || len(session.items) == 0 {
		return nil, ErrCartEmpty
	}

	now := time.Now()
	updates := map[string]interface{}{
		"coupon_codes":  models.StringArray(input.CouponCodes),
		"subtotal":      input.Quote.Subtotal,
		"shipping_fee":  input.Quote.ShippingFee,
		"tax_amount":    input.Quote.Tax,
		"discount":      input.Quote.Discount,
		"total":         input.Quote.Total,
		"shipping_tier": strings.ToLower(strings.TrimSpace(input.ShippingTier)),
		"submitted_at":  now,
	}
	orderID := session.orderID
	if err := s.orderRepo.MarkSubmitted(orderID, updates); err != nil {
		return nil, err
	}

	session.reset()

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	logger.Infow("cart_order_submitted", "user_id", userID, "order_id", orderID)
	return order, nil
}

// Reset 清空内存镜像，不触达持久层
func (s *CartService) Reset(userID uint) {
	s.sessions.Reset(userID)
}

// hydrateLocked 从用户的当前订单水合会话（调用方须持会话锁）
func (s *CartService) hydrateLocked(session *CartSession) error {
	if session.hydrated {
		return nil
	}
	order, err := s.orderRepo.GetCurrentByUser(session.userID)
	if err != nil {
		return err
	}
	if order != nil {
		session.orderID = order.ID
		session.items = order.Items
	}
	session.hydrated = true
	return nil
}

// prependOrderIndex 将新订单写入用户索引头部；失败只记录不回滚
func (s *CartService) prependOrderIndex(userID, orderID uint) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil || user == nil {
		logger.Warnw("order_index_load_failed", "user_id", userID, "order_id", orderID, "error", err)
		return
	}
	index := make(models.UintList, 0, len(user.OrderIDs)+1)
	index = append(index, orderID)
	for _, id := range user.OrderIDs {
		if id != orderID {
			index = append(index, id)
		}
	}
	if err := s.userRepo.UpdateOrderIDs(userID, index); err != nil {
		logger.Warnw("order_index_update_failed", "user_id", userID, "order_id", orderID, "error", err)
	}
}

// mergeItem 按商品合并数量，新商品生成 UUID 行项
func mergeItem(items []models.OrderItem, product *models.Product, quantity int) []models.OrderItem {
	for i := range items {
		if items[i].ProductID == product.ID {
			items[i].Quantity += quantity
			return items
		}
	}
	return append(items, models.OrderItem{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Title:     product.Title,
		Image:     product.Image,
		UnitPrice: product.Price,
		Quantity:  quantity,
	})
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("SF%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
