package queue

import (
	"encoding/json"

	"github.com/storefront-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCouponDeactivate 过期优惠券停用任务
	TaskCouponDeactivate = constants.TaskCouponDeactivate
	// TaskOrderSubmittedNotify 订单提交通知任务
	TaskOrderSubmittedNotify = constants.TaskOrderSubmittedNotify
)

// CouponDeactivatePayload 过期优惠券停用任务载荷
type CouponDeactivatePayload struct {
	CouponID uint   `json:"coupon_id"`
	Code     string `json:"code"`
}

// OrderSubmittedNotifyPayload 订单提交通知任务载荷
type OrderSubmittedNotifyPayload struct {
	OrderID uint   `json:"order_id"`
	UserID  uint   `json:"user_id"`
	OrderNo string `json:"order_no"`
}

// NewCouponDeactivateTask 创建过期优惠券停用任务
func NewCouponDeactivateTask(payload CouponDeactivatePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCouponDeactivate, body), nil
}

// NewOrderSubmittedNotifyTask 创建订单提交通知任务
func NewOrderSubmittedNotifyTask(payload OrderSubmittedNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderSubmittedNotify, body), nil
}
