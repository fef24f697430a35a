package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

func parseBoolQuery(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// GetAdminOrders 订单列表
func (h *Handler) GetAdminOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	}
	if rawUserID := strings.TrimSpace(c.Query("user_id")); rawUserID != "" {
		parsed, err := strconv.ParseUint(rawUserID, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "invalid user id", err)
			return
		}
		filter.UserID = uint(parsed)
	}
	for name, target := range map[string]**bool{
		"current":   &filter.Current,
		"submitted": &filter.Submitted,
		"paid":      &filter.Paid,
		"fulfilled": &filter.Fulfilled,
		"delivered": &filter.Delivered,
	} {
		value, err := parseBoolQuery(c, name)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		*target = value
	}
	if raw := strings.TrimSpace(c.Query("created_from")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid created_from", err)
			return
		}
		filter.CreatedFrom = &parsed
	}
	if raw := strings.TrimSpace(c.Query("created_to")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid created_to", err)
			return
		}
		filter.CreatedTo = &parsed
	}

	orders, total, err := h.OrderService.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, orders, pagination)
}

// OrderStageRequest 阶段标记更新请求
type OrderStageRequest struct {
	Paid      *bool `json:"paid"`
	Fulfilled *bool `json:"fulfilled"`
	Delivered *bool `json:"delivered"`
}

// UpdateOrderStages 更新已关闭订单的阶段标记
func (h *Handler) UpdateOrderStages(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", err)
		return
	}
	var req OrderStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if req.Paid == nil && req.Fulfilled == nil && req.Delivered == nil {
		respondError(c, response.CodeBadRequest, "no stage flags provided", nil)
		return
	}

	order, err := h.OrderService.UpdateStages(uint(orderID), service.StageUpdateInput{
		Paid:      req.Paid,
		Fulfilled: req.Fulfilled,
		Delivered: req.Delivered,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderStillOpen):
			respondError(c, response.CodeBadRequest, "order is still open", nil)
		default:
			respondError(c, response.CodeInternal, "order update failed", err)
		}
		return
	}
	response.Success(c, order)
}

// GetAdminUsers 用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	users, total, err := h.UserRepo.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "user list failed", err)
		return
	}

	views := make([]gin.H, 0, len(users))
	for _, user := range users {
		views = append(views, gin.H{
			"id":            user.ID,
			"email":         user.Email,
			"display_name":  user.DisplayName,
			"status":        user.Status,
			"order_count":   len(user.OrderIDs),
			"last_login_at": user.LastLoginAt,
			"created_at":    user.CreatedAt,
		})
	}
	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, views, pagination)
}
