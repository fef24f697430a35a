package provider

import (
	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo   repository.AdminRepository
	UserRepo    repository.UserRepository
	ProductRepo repository.ProductRepository
	OrderRepo   repository.OrderRepository
	CouponRepo  repository.CouponRepository

	// Services
	AuthBroker      *service.AuthBroker
	SessionManager  *service.SessionManager
	AuthService     *service.AuthService
	UserAuthService *service.UserAuthService
	ProductService  *service.ProductService
	PricingService  *service.PricingService
	CouponService   *service.CouponService
	CartService     *service.CartService
	OrderService    *service.OrderService
	CheckoutService *service.CheckoutService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
}

func (c *Container) initServices() {
	c.AuthBroker = service.NewAuthBroker()
	c.SessionManager = service.NewSessionManager()
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.AuthBroker)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.PricingService = service.NewPricingService(&c.Config.Pricing)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.QueueClient)
	c.CartService = service.NewCartService(c.SessionManager, c.OrderRepo, c.UserRepo, c.ProductRepo, c.AuthBroker)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.UserRepo)
	c.CheckoutService = service.NewCheckoutService(c.CartService, c.PricingService, c.CouponService, c.QueueClient)

	if err := c.CouponService.WarmFilter(); err != nil {
		logger.Warnw("provider_warm_coupon_filter_failed", "error", err)
	}
}
