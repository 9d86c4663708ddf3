package provider

import (
	"github.com/facturis-next/internal/authz"
	"github.com/facturis-next/internal/cache"
	"github.com/facturis-next/internal/config"
	"github.com/facturis-next/internal/crypto"
	"github.com/facturis-next/internal/logger"
	"github.com/facturis-next/internal/models"
	"github.com/facturis-next/internal/repository"
	"github.com/facturis-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config *config.Config

	// Repositories
	UserRepo    repository.UserRepository
	InvoiceRepo repository.InvoiceRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	CaptchaService    *service.CaptchaService
	CredentialService *service.CredentialService
	OrderService      *service.OrderService
	StorageService    *service.StorageService
	InvoiceService    *service.InvoiceService
	BulkService       *service.BulkService
	UserAdminService  *service.UserAdminService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	c := &Container{Config: cfg}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.InvoiceRepo = repository.NewInvoiceRepository(db)
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

	cipher, err := crypto.NewCipher(c.Config.Security.EncryptionKey)
	if err != nil {
		logger.Errorw("provider_init_cipher_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.CredentialService = service.NewCredentialService(c.Config, c.UserRepo, cipher)
	c.OrderService = service.NewOrderService(c.CredentialService)
	c.StorageService = service.NewStorageService(c.Config, c.InvoiceRepo)
	c.InvoiceService = service.NewInvoiceService(c.Config, c.CredentialService, c.InvoiceRepo, c.StorageService)
	c.BulkService = service.NewBulkService(c.CredentialService, c.InvoiceService, c.InvoiceRepo)
	c.UserAdminService = service.NewUserAdminService(c.Config, c.UserRepo, c.AuthzService)
}
