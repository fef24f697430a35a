package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCouponServiceTest(t *testing.T) (*CouponService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Coupon{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}
	return NewCouponService(repository.NewCouponRepository(db), queueClient), db
}

func seedCoupon(t *testing.T, db *gorm.DB, coupon models.Coupon) models.Coupon {
	t.Helper()
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return coupon
}

func TestCouponServiceEvaluateUnknownCode(t *testing.T) {
	svc, _ := setupCouponServiceTest(t)

	_, _, err := svc.Evaluate(context.Background(), "NOPE", models.NewMoneyFromFloat(100), time.Now())
	if !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got: %v", err)
	}
	_, _, err = svc.Evaluate(context.Background(), "   ", models.NewMoneyFromFloat(100), time.Now())
	if !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound for blank code, got: %v", err)
	}
}

func TestCouponServiceEvaluatePercent(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	seedCoupon(t, db, models.Coupon{
		Code:     "SAVE25",
		Type:     models.CouponTypePercent,
		Value:    models.NewMoneyFromFloat(25),
		IsActive: true,
	})
	if err := svc.WarmFilter(); err != nil {
		t.Fatalf("warm filter failed: %v", err)
	}

	discount, coupon, err := svc.Evaluate(context.Background(), "save25", models.NewMoneyFromFloat(80), time.Now())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if coupon == nil || coupon.Code != "SAVE25" {
		t.Fatalf("unexpected coupon: %+v", coupon)
	}
	if discount.String() != "20.00" {
		t.Fatalf("discount want 20.00 got %s", discount)
	}
}

func TestCouponServiceEvaluateFixedCappedAtSubtotal(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	seedCoupon(t, db, models.Coupon{
		Code:     "FLAT50",
		Type:     models.CouponTypeFixed,
		Value:    models.NewMoneyFromFloat(50),
		IsActive: true,
	})
	if err := svc.WarmFilter(); err != nil {
		t.Fatalf("warm filter failed: %v", err)
	}

	discount, _, err := svc.Evaluate(context.Background(), "FLAT50", models.NewMoneyFromFloat(30), time.Now())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if discount.String() != "30.00" {
		t.Fatalf("discount want 30.00 got %s", discount)
	}
}

func TestCouponServiceEvaluateInactiveBeforeExpired(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	past := time.Now().Add(-24 * time.Hour)
	seedCoupon(t, db, models.Coupon{
		Code:      "OLDDEAL",
		Type:      models.CouponTypePercent,
		Value:     models.NewMoneyFromFloat(10),
		ExpiresAt: &past,
		IsActive:  false,
	})
	if err := svc.WarmFilter(); err != nil {
		t.Fatalf("warm filter failed: %v", err)
	}

	_, _, err := svc.Evaluate(context.Background(), "OLDDEAL", models.NewMoneyFromFloat(100), time.Now())
	if !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("expected ErrCouponInactive, got: %v", err)
	}
}

func TestCouponServiceEvaluateExpiredDeactivates(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	past := time.Now().Add(-24 * time.Hour)
	coupon := seedCoupon(t, db, models.Coupon{
		Code:      "GONE",
		Type:      models.CouponTypePercent,
		Value:     models.NewMoneyFromFloat(10),
		ExpiresAt: &past,
		IsActive:  true,
	})
	if err := svc.WarmFilter(); err != nil {
		t.Fatalf("warm filter failed: %v", err)
	}

	_, _, err := svc.Evaluate(context.Background(), "GONE", models.NewMoneyFromFloat(100), time.Now())
	if !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected ErrCouponExpired, got: %v", err)
	}

	var got models.Coupon
	if err := db.First(&got, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if got.IsActive {
		t.Fatal("expired coupon should have been deactivated")
	}
}

func TestCouponServiceEvaluateBelowMinimum(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	seedCoupon(t, db, models.Coupon{
		Code:           "BIGCART",
		Type:           models.CouponTypeFixed,
		Value:          models.NewMoneyFromFloat(15),
		MinPurchase:    models.NewMoneyFromFloat(50),
		MinPurchaseSet: true,
		IsActive:       true,
	})
	if err := svc.WarmFilter(); err != nil {
		t.Fatalf("warm filter failed: %v", err)
	}

	_, _, err := svc.Evaluate(context.Background(), "BIGCART", models.NewMoneyFromFloat(49.99), time.Now())
	if !errors.Is(err, ErrCouponBelowMinimum) {
		t.Fatalf("expected ErrCouponBelowMinimum, got: %v", err)
	}
	var belowMin *BelowMinimumError
	if !errors.As(err, &belowMin) {
		t.Fatalf("expected BelowMinimumError, got: %T", err)
	}
	if belowMin.Required.String() != "50.00" {
		t.Fatalf("required want 50.00 got %s", belowMin.Required)
	}

	// 恰好达到门槛可用
	discount, _, err := svc.Evaluate(context.Background(), "BIGCART", models.NewMoneyFromFloat(50), time.Now())
	if err != nil {
		t.Fatalf("evaluate at threshold failed: %v", err)
	}
	if discount.String() != "15.00" {
		t.Fatalf("discount want 15.00 got %s", discount)
	}
}

func TestCouponServiceCreateAddsToFilter(t *testing.T) {
	svc, _ := setupCouponServiceTest(t)

	coupon := models.Coupon{
		Code:     "  fresh10  ",
		Type:     models.CouponTypePercent,
		Value:    models.NewMoneyFromFloat(10),
		IsActive: true,
	}
	if err := svc.Create(&coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if coupon.Code != "FRESH10" {
		t.Fatalf("code should be normalized, got: %s", coupon.Code)
	}

	// 未调用 WarmFilter 也能命中，Create 同步写入过滤器
	discount, _, err := svc.Evaluate(context.Background(), "FRESH10", models.NewMoneyFromFloat(100), time.Now())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if discount.String() != "10.00" {
		t.Fatalf("discount want 10.00 got %s", discount)
	}

	dup := models.Coupon{Code: "fresh10", Type: models.CouponTypePercent, Value: models.NewMoneyFromFloat(5)}
	if err := svc.Create(&dup); !errors.Is(err, ErrCouponExists) {
		t.Fatalf("expected ErrCouponExists, got: %v", err)
	}
}

func TestCouponServiceRejectsNegativeAmounts(t *testing.T) {
	svc, db := setupCouponServiceTest(t)

	negativeValue := models.Coupon{
		Code:     "NEGVAL",
		Type:     models.CouponTypeFixed,
		Value:    models.NewMoneyFromFloat(-5),
		IsActive: true,
	}
	if err := svc.Create(&negativeValue); !errors.Is(err, ErrCouponInvalidValue) {
		t.Fatalf("expected ErrCouponInvalidValue for negative value, got: %v", err)
	}

	negativeMin := models.Coupon{
		Code:           "NEGMIN",
		Type:           models.CouponTypePercent,
		Value:          models.NewMoneyFromFloat(10),
		MinPurchase:    models.NewMoneyFromFloat(-1),
		MinPurchaseSet: true,
		IsActive:       true,
	}
	if err := svc.Create(&negativeMin); !errors.Is(err, ErrCouponInvalidValue) {
		t.Fatalf("expected ErrCouponInvalidValue for negative min purchase, got: %v", err)
	}

	var count int64
	if err := db.Model(&models.Coupon{}).Count(&count).Error; err != nil {
		t.Fatalf("count coupons failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no coupon should be persisted, got count=%d", count)
	}

	existing := seedCoupon(t, db, models.Coupon{
		Code:     "GOOD",
		Type:     models.CouponTypePercent,
		Value:    models.NewMoneyFromFloat(10),
		IsActive: true,
	})
	existing.Value = models.NewMoneyFromFloat(-20)
	if err := svc.Update(&existing); !errors.Is(err, ErrCouponInvalidValue) {
		t.Fatalf("expected ErrCouponInvalidValue on update, got: %v", err)
	}
}

func TestCouponServiceDeleteMissing(t *testing.T) {
	svc, _ := setupCouponServiceTest(t)
	if err := svc.Delete(12345); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got: %v", err)
	}
}

func TestCouponServiceImportSkipsExisting(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	seedCoupon(t, db, models.Coupon{
		Code:     "KEEP",
		Type:     models.CouponTypePercent,
		Value:    models.NewMoneyFromFloat(5),
		IsActive: true,
	})
	if err := svc.WarmFilter(); err != nil {
		t.Fatalf("warm filter failed: %v", err)
	}

	imported, err := svc.Import([]models.CouponDocument{
		{Code: "KEEP", Type: models.CouponTypePercent, Value: models.NewMoneyFromFloat(50), IsActive: true},
		{Code: "NEWONE", Type: models.CouponTypeFixed, Value: models.NewMoneyFromFloat(9), IsActive: true},
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if imported != 1 {
		t.Fatalf("imported want 1 got %d", imported)
	}

	var count int64
	if err := db.Model(&models.Coupon{}).Count(&count).Error; err != nil {
		t.Fatalf("count coupons failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("coupon count want 2 got %d", count)
	}
}
