package provider

import (
	"github.com/relicvault/storefront/internal/authz"
	"github.com/relicvault/storefront/internal/cache"
	"github.com/relicvault/storefront/internal/config"
	"github.com/relicvault/storefront/internal/identity"
	"github.com/relicvault/storefront/internal/logger"
	"github.com/relicvault/storefront/internal/models"
	"github.com/relicvault/storefront/internal/queue"
	"github.com/relicvault/storefront/internal/repository"
	"github.com/relicvault/storefront/internal/service"
	"github.com/relicvault/storefront/internal/shopapi"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Remote
	ShopAPI  *shopapi.Client
	Identity *identity.Client

	// Repositories
	ClientStorageRepo repository.ClientStorageRepository

	// Stores
	DurableStore *service.DurableStore
	SessionStore *cache.SessionStore

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	CaptchaService    *service.CaptchaService
	UploadService     *service.UploadService
	CatalogService    *service.CatalogService
	CartService       *service.CartService
	CheckoutService   *service.CheckoutService
	AdminTableService *service.AdminTableService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端，未启用时返回禁用的客户端，刷新回退为过期标记
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		ShopAPI:     shopapi.NewClient(cfg.ShopAPI),
		Identity:    identity.NewClient(cfg.Identity),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	c.ClientStorageRepo = repository.NewClientStorageRepository(models.DB)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.DurableStore = service.NewDurableStore(c.ClientStorageRepo)
	c.SessionStore = cache.NewSessionStore(c.Config.Session.StorageTTL())

	c.CatalogService = service.NewCatalogService(c.ShopAPI)
	c.CartService = service.NewCartService(c.DurableStore, c.SessionStore, c.CatalogService)
	c.CheckoutService = service.NewCheckoutService(c.CartService, c.SessionStore, c.ShopAPI)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config.Session, c.Identity, c.ShopAPI, c.CaptchaService, c.CartService)
	c.UploadService = service.NewUploadService(c.Config.Upload)

	registry, err := service.NewDescriptorRegistry(service.DefaultDescriptors()...)
	if err != nil {
		logger.Errorw("provider_init_descriptors_failed", "error", err)
		panic(err)
	}
	c.AdminTableService = service.NewAdminTableService(registry, c.ShopAPI, c.SessionStore, c.QueueClient, c.Config.Admin, c.Config.Export)
}
