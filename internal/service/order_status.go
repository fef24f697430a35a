package service

import (
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
)

// IsOpen 订单是否仍可编辑（当前购物车镜像）
func IsOpen(order *models.Order) bool {
	if order == nil {
		return false
	}
	return order.Current && !order.Submitted && !order.Paid && !order.Fulfilled && !order.Delivered
}

// StatusLabel 订单展示状态
// 优先级：delivered > fulfilled > paid > submitted，否则 processing
func StatusLabel(order *models.Order) string {
	if order == nil {
		return constants.OrderStatusProcessing
	}
	switch {
	case order.Delivered:
		return constants.OrderStatusDelivered
	case order.Fulfilled:
		return constants.OrderStatusFulfilled
	case order.Paid:
		return constants.OrderStatusPaid
	case order.Submitted:
		return constants.OrderStatusSubmitted
	default:
		return constants.OrderStatusProcessing
	}
}
