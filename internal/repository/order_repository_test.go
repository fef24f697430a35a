package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/storefront-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func newTestItem(productID uint, quantity int) models.OrderItem {
	return models.OrderItem{
		ID:        uuid.NewString(),
		ProductID: productID,
		Title:     fmt.Sprintf("product-%d", productID),
		UnitPrice: models.NewMoneyFromFloat(10),
		Quantity:  quantity,
	}
}

func createTestOrder(t *testing.T, repo *GormOrderRepository, userID uint, current bool, items ...models.OrderItem) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo: fmt.Sprintf("SF%d%s", time.Now().UnixNano(), uuid.NewString()[:6]),
		UserID:  userID,
		Current: current,
	}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestOrderRepositoryCreateWithItems(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	order := createTestOrder(t, repo, 1, true, newTestItem(10, 2), newTestItem(11, 1))

	got, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got == nil || len(got.Items) != 2 {
		t.Fatalf("unexpected order: %+v", got)
	}
	for _, item := range got.Items {
		if item.OrderID != order.ID {
			t.Fatalf("item should be bound to order %d, got %d", order.ID, item.OrderID)
		}
	}

	var count int64
	if err := db.Model(&models.OrderItem{}).Count(&count).Error; err != nil {
		t.Fatalf("count items failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("item count want 2 got %d", count)
	}
}

func TestOrderRepositoryGetCurrentByUser(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	createTestOrder(t, repo, 1, false, newTestItem(10, 1))
	current := createTestOrder(t, repo, 1, true, newTestItem(11, 3))
	createTestOrder(t, repo, 2, true)

	got, err := repo.GetCurrentByUser(1)
	if err != nil {
		t.Fatalf("get current failed: %v", err)
	}
	if got == nil || got.ID != current.ID {
		t.Fatalf("current order want %d got %+v", current.ID, got)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 3 {
		t.Fatalf("items should be preloaded: %+v", got.Items)
	}

	got, err = repo.GetCurrentByUser(99)
	if err != nil {
		t.Fatalf("get current for unknown user failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil order, got: %+v", got)
	}
}

func TestOrderRepositoryGetByIDAndUser(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createTestOrder(t, repo, 1, true, newTestItem(10, 1))

	got, err := repo.GetByIDAndUser(order.ID, 1)
	if err != nil {
		t.Fatalf("get by id and user failed: %v", err)
	}
	if got == nil || got.ID != order.ID {
		t.Fatalf("unexpected order: %+v", got)
	}

	got, err = repo.GetByIDAndUser(order.ID, 2)
	if err != nil {
		t.Fatalf("cross-user lookup failed: %v", err)
	}
	if got != nil {
		t.Fatal("other user's order should not be visible")
	}
}

func TestOrderRepositoryListByIDsKeepsOrder(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	first := createTestOrder(t, repo, 1, false)
	second := createTestOrder(t, repo, 1, false)
	third := createTestOrder(t, repo, 1, false)

	orders, err := repo.ListByIDs([]uint{third.ID, first.ID, 9999, second.ID})
	if err != nil {
		t.Fatalf("list by ids failed: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got: %d", len(orders))
	}
	if orders[0].ID != third.ID || orders[1].ID != first.ID || orders[2].ID != second.ID {
		t.Fatalf("orders should follow input order, got: %d %d %d", orders[0].ID, orders[1].ID, orders[2].ID)
	}

	orders, err = repo.ListByIDs(nil)
	if err != nil {
		t.Fatalf("list empty ids failed: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected empty result, got: %d", len(orders))
	}
}

func TestOrderRepositoryReplaceItems(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	order := createTestOrder(t, repo, 1, true, newTestItem(10, 1), newTestItem(11, 2))

	replacement := []models.OrderItem{newTestItem(12, 4)}
	if err := repo.ReplaceItems(order.ID, replacement); err != nil {
		t.Fatalf("replace items failed: %v", err)
	}

	var items []models.OrderItem
	if err := db.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		t.Fatalf("query items failed: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != 12 || items[0].Quantity != 4 {
		t.Fatalf("unexpected items after replace: %+v", items)
	}

	// 清空订单项
	if err := repo.ReplaceItems(order.ID, nil); err != nil {
		t.Fatalf("replace with empty failed: %v", err)
	}
	var count int64
	if err := db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count items failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("item count want 0 got %d", count)
	}

	if err := repo.ReplaceItems(0, replacement); err == nil {
		t.Fatal("expected error for missing order id")
	}
}

func TestOrderRepositoryMarkSubmitted(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createTestOrder(t, repo, 1, true, newTestItem(10, 1))

	now := time.Now()
	updates := map[string]interface{}{
		"subtotal":     models.NewMoneyFromFloat(10),
		"total":        models.NewMoneyFromFloat(15.80),
		"submitted_at": now,
	}
	if err := repo.MarkSubmitted(order.ID, updates); err != nil {
		t.Fatalf("mark submitted failed: %v", err)
	}

	got, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if got.Current {
		t.Fatal("submitted order should not be current")
	}
	if !got.Submitted || !got.Paid || !got.Fulfilled || !got.Delivered {
		t.Fatalf("all stage flags should be set: %+v", got)
	}
	if got.Total.String() != "15.80" {
		t.Fatalf("total want 15.80 got %s", got.Total)
	}

	// 已关闭订单再次提交：零行命中
	if err := repo.MarkSubmitted(order.ID, updates); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound on resubmit, got: %v", err)
	}
	if err := repo.MarkSubmitted(9999, updates); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for unknown order, got: %v", err)
	}
}

func TestOrderRepositoryUpdateStageFlags(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	open := createTestOrder(t, repo, 1, true)
	closed := createTestOrder(t, repo, 1, false)

	updates := map[string]interface{}{"paid": true}

	// 打开的订单不允许改阶段标记
	if err := repo.UpdateStageFlags(open.ID, updates); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for open order, got: %v", err)
	}

	if err := repo.UpdateStageFlags(closed.ID, updates); err != nil {
		t.Fatalf("update stage flags failed: %v", err)
	}
	got, err := repo.GetByID(closed.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if !got.Paid {
		t.Fatal("paid flag should be set")
	}
}

func TestOrderRepositoryListAdminFilters(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	createTestOrder(t, repo, 1, true)
	closed := createTestOrder(t, repo, 1, false)
	createTestOrder(t, repo, 2, false)
	if err := db.Model(&models.Order{}).Where("id = ?", closed.ID).Update("paid", true).Error; err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	paid := true
	orders, total, err := repo.ListAdmin(OrderListFilter{UserID: 1, Paid: &paid})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].ID != closed.ID {
		t.Fatalf("unexpected filter result: total=%d orders=%+v", total, orders)
	}

	orders, total, err = repo.ListAdmin(OrderListFilter{})
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if total != 3 || len(orders) != 3 {
		t.Fatalf("expected 3 orders, got total=%d len=%d", total, len(orders))
	}
}
