package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	svc := NewCartService(
		NewSessionManager(),
		repository.NewOrderRepository(db),
		repository.NewUserRepository(db),
		repository.NewProductRepository(db),
		NewAuthBroker(),
	)
	return svc, db
}

func seedCartUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("cart_user_%d@example.com", id),
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func seedCartProduct(t *testing.T, db *gorm.DB, title string, price float64, active bool) *models.Product {
	t.Helper()
	product := models.Product{
		Title:    title,
		Category: "electronics",
		Price:    models.NewMoneyFromFloat(price),
		IsActive: active,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return &product
}

func TestCartServiceAddItemCreatesOrderLazily(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seedCartUser(t, db, 1)
	product := seedCartProduct(t, db, "Keyboard", 49.99, true)

	view, err := svc.AddItem(1, product.ID, 2)
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if view.OrderID == 0 {
		t.Fatal("expected lazily created order")
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", view.Items)
	}
	if view.Items[0].ID == "" {
		t.Fatal("line item should carry a generated id")
	}

	var order models.Order
	if err := db.First(&order, view.OrderID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if !order.Current {
		t.Fatal("new order should be current")
	}
	if !strings.HasPrefix(order.OrderNo, "SF") || len(order.OrderNo) != 22 {
		t.Fatalf("unexpected order no: %s", order.OrderNo)
	}

	// 新订单写入用户索引头部
	var user models.User
	if err := db.First(&user, 1).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if len(user.OrderIDs) != 1 || user.OrderIDs[0] != view.OrderID {
		t.Fatalf("unexpected order index: %v", user.OrderIDs)
	}
}

func TestCartServiceAddItemMergesByProduct(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seedCartUser(t, db, 1)
	product := seedCartProduct(t, db, "Mouse", 19.99, true)

	first, err := svc.AddItem(1, product.ID, 1)
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	second, err := svc.AddItem(1, product.ID, 3)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if second.OrderID != first.OrderID {
		t.Fatalf("merge should reuse order %d, got %d", first.OrderID, second.OrderID)
	}
	if len(second.Items) != 1 {
		t.Fatalf("expected single merged line, got: %d", len(second.Items))
	}
	if second.Items[0].Quantity != 4 {
		t.Fatalf("quantity want 4 got %d", second.Items[0].Quantity)
	}
	if second.Items[0].ID != first.Items[0].ID {
		t.Fatal("merge should keep the original line item id")
	}

	var count int64
	if err := db.Model(&models.OrderItem{}).Where("order_id = ?", first.OrderID).Count(&count).Error; err != nil {
		t.Fatalf("count items failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("persisted items want 1 got %d", count)
	}
}

func TestCartServiceAddItemValidation(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seedCartUser(t, db, 1)
	active := seedCartProduct(t, db, "Lamp", 10, true)
	inactive := seedCartProduct(t, db, "Ghost", 10, false)
	discontinued := seedCartProduct(t, db, "Relic", 10, true)
	if err := db.Model(&models.Product{}).Where("id = ?", discontinued.ID).Update("discontinued", true).Error; err != nil {
		t.Fatalf("mark discontinued failed: %v", err)
	}

	if _, err := svc.AddItem(0, active.ID, 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
	if _, err := svc.AddItem(1, active.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}
	if _, err := svc.AddItem(1, 9999, 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got: %v", err)
	}
	if _, err := svc.AddItem(1, inactive.ID, 1); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected ErrProductNotAvailable for inactive, got: %v", err)
	}
	if _, err := svc.AddItem(1, discontinued.ID, 1); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected ErrProductNotAvailable for discontinued, got: %v", err)
	}
}

func TestCartServiceUpdateQuantity(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seedCartUser(t, db, 1)
	product := seedCartProduct(t, db, "Desk", 120, true)

	view, err := svc.AddItem(1, product.ID, 1)
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	itemID := view.Items[0].ID

	updated, err := svc.UpdateQuantity(1, itemID, 5)
	if err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if updated.Items[0].Quantity != 5 {
		t.Fatalf("quantity want 5 got %d", updated.Items[0].Quantity)
	}

	// 数量小于 1 拒绝而不是隐式删除
	if _, err := svc.UpdateQuantity(1, itemID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}

	// 行项不存在时为成功的空操作
	untouched, err := svc.UpdateQuantity(1, "missing-item", 2)
	if err != nil {
		t.Fatalf("unknown item id should be a no-op, got: %v", err)
	}
	if len(untouched.Items) != 1 || untouched.Items[0].Quantity != 5 {
		t.Fatalf("no-op should leave cart unchanged: %+v", untouched.Items)
	}

	var persisted models.OrderItem
	if err := db.Where("id = ?", itemID).First(&persisted).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	if persisted.Quantity != 5 {
		t.Fatalf("persisted quantity want 5 got %d", persisted.Quantity)
	}
}

func TestCartServiceRemoveItemIdempotent(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seedCartUser(t, db, 1)
	product := seedCartProduct(t, db, "Chair", 60, true)

	view, err := svc.AddItem(1, product.ID, 1)
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	itemID := view.Items[0].ID

	removed, err := svc.RemoveItem(1, itemID)
	if err != nil {
		t.Fatalf("remove item failed: %v", err)
	}
	if len(removed.Items) != 0 {
		t.Fatalf("expected empty cart, got: %+v", removed.Items)
	}

	// 重复删除视为成功
	again, err := svc.RemoveItem(1, itemID)
	if err != nil {
		t.Fatalf("second remove failed: %v", err)
	}
	if len(again.Items) != 0 {
		t.Fatalf("expected empty cart, got: %+v", again.Items)
	}
}

func TestCartServiceRemoveItemWithoutOpenOrder(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seedCartUser(t, db, 1)

	if _, err := svc.RemoveItem(1, "anything"); !errors.Is(err, ErrNoOpenOrder) {
		t.Fatalf("expected ErrNoOpenOrder, got: %v", err)
	}
	if _, err := svc.RemoveItem(0, "anything"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
}

func TestCartServiceHydratesFromCurrentOrder(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seedCartUser(t, db, 1)
	product := seedCartProduct(t, db, "Monitor", 250, true)

	view, err := svc.AddItem(1, product.ID, 2)
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	// 新进程视角：全新会话从当前订单水合
	fresh := NewCartService(
		NewSessionManager(),
		repository.NewOrderRepository(db),
		repository.NewUserRepository(db),
		repository.NewProductRepository(db),
		NewAuthBroker(),
	)
	hydrated, err := fresh.Items(1)
	if err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	if hydrated.OrderID != view.OrderID {
		t.Fatalf("order id want %d got %d", view.OrderID, hydrated.OrderID)
	}
	if len(hydrated.Items) != 1 || hydrated.Items[0].Quantity != 2 {
		t.Fatalf("unexpected hydrated items: %+v", hydrated.Items)
	}
}

func TestCartServiceLoadFromOrderPreconditions(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seedCartUser(t, db, 1)
	seedCartUser(t, db, 2)
	product := seedCartProduct(t, db, "Webcam", 80, true)

	view, err := svc.AddItem(1, product.ID, 1)
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	if _, err := svc.LoadFromOrder(2, view.OrderID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("other user's order should be invisible, got: %v", err)
	}
	if _, err := svc.LoadFromOrder(1, 9999); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}

	loaded, err := svc.LoadFromOrder(1, view.OrderID)
	if err != nil {
		t.Fatalf("load from order failed: %v", err)
	}
	if loaded.OrderID != view.OrderID || loaded.OrderNo == "" {
		t.Fatalf("unexpected loaded view: %+v", loaded)
	}

	// 已关闭订单不可再装载
	if err := db.Model(&models.Order{}).Where("id = ?", view.OrderID).Update("current", false).Error; err != nil {
		t.Fatalf("close order failed: %v", err)
	}
	if _, err := svc.LoadFromOrder(1, view.OrderID); !errors.Is(err, ErrOrderNotOpen) {
		t.Fatalf("expected ErrOrderNotOpen, got: %v", err)
	}
}

func TestCartServiceSubmitClosesOrder(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seedCartUser(t, db, 1)
	product := seedCartProduct(t, db, "Speaker", 100, true)

	view, err := svc.AddItem(1, product.ID, 1)
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	pricing := NewPricingService(nil)
	fee, err := pricing.FeeFor(constants.ShippingTierStandard)
	if err != nil {
		t.Fatalf("fee lookup failed: %v", err)
	}
	quote := pricing.Quote(view.Items, fee, models.NewMoneyFromFloat(10))

	order, err := svc.Submit(1, SubmitOrderInput{
		CouponCodes:  []string{"SAVE10"},
		ShippingTier: constants.ShippingTierStandard,
		Quote:        quote,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if order.Current {
		t.Fatal("submitted order should not be current")
	}
	if !order.Submitted || !order.Paid || !order.Fulfilled || !order.Delivered {
		t.Fatalf("all stage flags should be set: %+v", order)
	}
	if order.SubmittedAt == nil {
		t.Fatal("submitted_at should be set")
	}
	if order.Total.String() != "103.00" {
		t.Fatalf("total want 103.00 got %s", order.Total)
	}
	if len(order.CouponCodes) != 1 || order.CouponCodes[0] != "SAVE10" {
		t.Fatalf("unexpected coupon codes: %v", order.CouponCodes)
	}
	if order.ShippingTier != constants.ShippingTierStandard {
		t.Fatalf("unexpected shipping tier: %s", order.ShippingTier)
	}

	// 提交后内存镜像清空，再次提交报空购物车
	if _, err := svc.Submit(1, SubmitOrderInput{Quote: quote}); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got: %v", err)
	}

	// 历史订单与用户索引保持不变
	var user models.User
	if err := db.First(&user, 1).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if len(user.OrderIDs) != 1 || user.OrderIDs[0] != order.ID {
		t.Fatalf("order index should survive submit: %v", user.OrderIDs)
	}
}

func TestCartServiceSubmitEmptyCart(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seedCartUser(t, db, 1)

	if _, err := svc.Submit(1, SubmitOrderInput{}); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got: %v", err)
	}
	if _, err := svc.Submit(0, SubmitOrderInput{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
}
