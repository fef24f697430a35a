package public

import (
	"errors"
	"strconv"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListMyOrders 用户订单历史（按索引顺序，新订单在前）
func (h *Handler) ListMyOrders(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}

	orders, err := h.OrderService.History(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "order list failed", err)
		}
		return
	}
	response.Success(c, orders)
}

// GetMyOrder 用户订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("order_id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	order, err := h.OrderService.GetForUser(id, uint(orderID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		default:
			respondError(c, response.CodeInternal, "order fetch failed", err)
		}
		return
	}
	response.Success(c, order)
}
