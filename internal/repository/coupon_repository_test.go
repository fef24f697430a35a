package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/storefront-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCouponRepositoryTest(t *testing.T) (*GormCouponRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Coupon{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewCouponRepository(db), db
}

func createTestCoupon(t *testing.T, repo *GormCouponRepository, code string, active bool) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		Code:     code,
		Type:     models.CouponTypePercent,
		Value:    models.NewMoneyFromFloat(10),
		IsActive: active,
	}
	if err := repo.Create(coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return coupon
}

func TestCouponRepositoryGetByCode(t *testing.T) {
	repo, _ := setupCouponRepositoryTest(t)
	createTestCoupon(t, repo, "TEN", true)

	got, err := repo.GetByCode("TEN")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if got == nil || got.Code != "TEN" {
		t.Fatalf("unexpected coupon: %+v", got)
	}

	got, err = repo.GetByCode("MISSING")
	if err != nil {
		t.Fatalf("get missing failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown code, got: %+v", got)
	}
}

func TestCouponRepositoryListCodes(t *testing.T) {
	repo, _ := setupCouponRepositoryTest(t)
	createTestCoupon(t, repo, "A1", true)
	createTestCoupon(t, repo, "B2", false)

	codes, err := repo.ListCodes()
	if err != nil {
		t.Fatalf("list codes failed: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("expected 2 codes, got: %v", codes)
	}
}

func TestCouponRepositoryDeactivate(t *testing.T) {
	repo, _ := setupCouponRepositoryTest(t)
	coupon := createTestCoupon(t, repo, "LIVE", true)

	if err := repo.Deactivate(coupon.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	got, err := repo.GetByID(coupon.ID)
	if err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if got.IsActive {
		t.Fatal("coupon should be inactive")
	}
}

func TestCouponRepositoryDeleteSoftDeletes(t *testing.T) {
	repo, db := setupCouponRepositoryTest(t)
	coupon := createTestCoupon(t, repo, "BYE", true)

	if err := repo.Delete(coupon.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got, err := repo.GetByID(coupon.ID)
	if err != nil {
		t.Fatalf("get deleted failed: %v", err)
	}
	if got != nil {
		t.Fatalf("deleted coupon should be invisible, got: %+v", got)
	}

	var count int64
	if err := db.Unscoped().Model(&models.Coupon{}).Where("id = ?", coupon.ID).Count(&count).Error; err != nil {
		t.Fatalf("count raw rows failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("soft delete should keep the row, got count=%d", count)
	}
}

func TestCouponRepositoryListFilters(t *testing.T) {
	repo, _ := setupCouponRepositoryTest(t)
	createTestCoupon(t, repo, "ON1", true)
	createTestCoupon(t, repo, "ON2", true)
	createTestCoupon(t, repo, "OFF", false)

	active := true
	coupons, total, err := repo.List(CouponListFilter{IsActive: &active})
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if total != 2 || len(coupons) != 2 {
		t.Fatalf("expected 2 active coupons, got total=%d len=%d", total, len(coupons))
	}

	coupons, total, err = repo.List(CouponListFilter{Code: "OFF"})
	if err != nil {
		t.Fatalf("list by code failed: %v", err)
	}
	if total != 1 || len(coupons) != 1 || coupons[0].Code != "OFF" {
		t.Fatalf("unexpected code filter result: total=%d coupons=%+v", total, coupons)
	}

	coupons, total, err = repo.List(CouponListFilter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list paged failed: %v", err)
	}
	if total != 3 || len(coupons) != 2 {
		t.Fatalf("expected total=3 page len=2, got total=%d len=%d", total, len(coupons))
	}
}
