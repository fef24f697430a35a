package worker

import (
	"context"
	"encoding/json"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCouponDeactivate, c.handleCouponDeactivate)
	mux.HandleFunc(queue.TaskOrderSubmittedNotify, c.handleOrderSubmittedNotify)
}

// handleCouponDeactivate 停用已过期的优惠券
func (c *Consumer) handleCouponDeactivate(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.CouponDeactivatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_coupon_deactivate_unmarshal_failed", "error", err)
		return err
	}
	if payload.CouponID == 0 {
		logger.Debugw("worker_coupon_deactivate_skip_invalid_payload", "coupon_id", payload.CouponID)
		return nil
	}
	coupon, err := c.CouponRepo.GetByID(payload.CouponID)
	if err != nil {
		logger.Warnw("worker_coupon_deactivate_fetch_failed", "coupon_id", payload.CouponID, "error", err)
		return err
	}
	if coupon == nil || !coupon.IsActive {
		return nil
	}
	if err := c.CouponRepo.Deactivate(coupon.ID); err != nil {
		logger.Warnw("worker_coupon_deactivate_failed", "coupon_id", coupon.ID, "error", err)
		return err
	}
	if err := cache.DelCoupon(ctx, coupon.Code); err != nil {
		logger.Warnw("worker_coupon_cache_invalidate_failed", "code", coupon.Code, "error", err)
	}
	logger.Infow("worker_coupon_deactivated", "coupon_id", coupon.ID, "code", coupon.Code)
	return nil
}

// handleOrderSubmittedNotify 订单提交通知（记录通知事件，后续接入通知渠道）
func (c *Consumer) handleOrderSubmittedNotify(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.OrderSubmittedNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_submitted_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_submitted_notify_fetch_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_submitted_notify_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	logger.Infow("worker_order_submitted_notified",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"total", order.Total,
	)
	return nil
}
