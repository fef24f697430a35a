package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CouponRequest 创建/更新优惠券请求
type CouponRequest struct {
	Code        string   `json:"code" binding:"required"`
	Type        string   `json:"type" binding:"required"`
	Value       float64  `json:"value" binding:"required"`
	MinPurchase *float64 `json:"min_purchase"`
	ExpiresAt   string   `json:"expires_at"`
	IsActive    *bool    `json:"is_active"`
}

func (r CouponRequest) toModel() (*models.Coupon, error) {
	expiresAt, err := parseTimeNullable(r.ExpiresAt)
	if err != nil {
		return nil, err
	}
	coupon := &models.Coupon{
		Code:      models.NormalizeCouponCode(r.Code),
		Type:      r.Type,
		Value:     models.NewMoneyFromFloat(r.Value),
		ExpiresAt: expiresAt,
		IsActive:  true,
	}
	if r.MinPurchase != nil {
		coupon.MinPurchase = models.NewMoneyFromFloat(*r.MinPurchase)
		coupon.MinPurchaseSet = true
	}
	if r.IsActive != nil {
		coupon.IsActive = *r.IsActive
	}
	return coupon, nil
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	coupon, err := req.toModel()
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid expiry time", err)
		return
	}

	if err := h.CouponService.Create(coupon); err != nil {
		switch {
		case errors.Is(err, service.ErrCouponExists):
			respondError(c, response.CodeBadRequest, "coupon code already exists", nil)
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeBadRequest, "coupon code required", nil)
		case errors.Is(err, service.ErrCouponInvalidValue):
			respondError(c, response.CodeBadRequest, "coupon value must be non-negative", nil)
		default:
			respondError(c, response.CodeInternal, "coupon create failed", err)
		}
		return
	}
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "invalid coupon id", err)
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	coupon, err := req.toModel()
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid expiry time", err)
		return
	}
	coupon.ID = uint(couponID)

	if err := h.CouponService.Update(coupon); err != nil {
		switch {
		case errors.Is(err, service.ErrCouponInvalidValue):
			respondError(c, response.CodeBadRequest, "coupon value must be non-negative", nil)
		default:
			respondError(c, response.CodeInternal, "coupon update failed", err)
		}
		return
	}
	response.Success(c, coupon)
}

// DeleteCoupon 删除优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "invalid coupon id", err)
		return
	}
	if err := h.CouponService.Delete(uint(couponID)); err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "coupon not found", nil)
		default:
			respondError(c, response.CodeInternal, "coupon delete failed", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetAdminCoupons 优惠券列表
func (h *Handler) GetAdminCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		isActive = &parsed
	}

	coupons, total, err := h.CouponService.List(repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     c.Query("code"),
		IsActive: isActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "coupon list failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, coupons, pagination)
}

// ImportCouponsRequest 批量导入优惠券请求
type ImportCouponsRequest struct {
	Coupons []models.CouponDocument `json:"coupons" binding:"required"`
}

// ImportCoupons 批量导入优惠券文档（兼容历史字段拼写，已存在的码跳过）
func (h *Handler) ImportCoupons(c *gin.Context) {
	var req ImportCouponsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	imported, err := h.CouponService.Import(req.Coupons)
	if err != nil {
		respondError(c, response.CodeInternal, "coupon import failed", err)
		return
	}
	response.Success(c, gin.H{
		"imported": imported,
		"total":    len(req.Coupons),
	})
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
