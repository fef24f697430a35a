package constants

// 订单展示状态常量
const (
	OrderStatusProcessing = "processing"
	OrderStatusSubmitted  = "order submitted"
	OrderStatusPaid       = "order paid"
	OrderStatusFulfilled  = "order fulfilled"
	OrderStatusDelivered  = "order delivered"
)

// 配送档位常量
const (
	ShippingTierStandard  = "standard"
	ShippingTierExpress   = "express"
	ShippingTierOvernight = "overnight"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 队列常量
const (
	QueueDefault            = "default"
	QueueCritical           = "critical"
	TaskCouponDeactivate    = "coupon:deactivate"
	TaskOrderSubmittedNotify = "order:submitted_notify"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "sf"
)
