package public

import (
	"strconv"
	"strings"

	"github.com/storefront-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetCart 获取当前购物车
func (h *Handler) GetCart(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}
	view, err := h.CartService.Items(id)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}

// CartAddRequest 添加商品请求
type CartAddRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// AddCartItem 添加商品到购物车（同商品合并数量）
func (h *Handler) AddCartItem(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := h.CartService.AddItem(id, req.ProductID, req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}

// CartQuantityRequest 修改数量请求
type CartQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// UpdateCartItem 修改购物车行项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}
	itemID := strings.TrimSpace(c.Param("item_id"))
	if itemID == "" {
		respondError(c, response.CodeBadRequest, "invalid item id", nil)
		return
	}
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	view, err := h.CartService.UpdateQuantity(id, itemID, req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}

// RemoveCartItem 删除购物车行项（重复删除视为成功）
func (h *Handler) RemoveCartItem(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}
	itemID := strings.TrimSpace(c.Param("item_id"))
	if itemID == "" {
		respondError(c, response.CodeBadRequest, "invalid item id", nil)
		return
	}

	view, err := h.CartService.RemoveItem(id, itemID)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}

// LoadCartFromOrder 将历史未提交订单装回购物车
func (h *Handler) LoadCartFromOrder(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("order_id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	view, err := h.CartService.LoadFromOrder(id, uint(orderID))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}
