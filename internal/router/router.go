package router

import (
	"fmt"
	"strings"

	"github.com/facturis-next/internal/cache"
	"github.com/facturis-next/internal/config"
	adminhandlers "github.com/facturis-next/internal/http/handlers/admin"
	publichandlers "github.com/facturis-next/internal/http/handlers/public"
	"github.com/facturis-next/internal/logger"
	"github.com/facturis-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按用户侧/管理端分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "fx"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts, try again later",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 认证接口（无需鉴权）
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), publicHandler.Login)
			auth.POST("/register", publicHandler.Register)
			auth.GET("/captcha", publicHandler.GetImageCaptcha)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/profile", publicHandler.GetProfile)
			user.PUT("/password", publicHandler.ChangePassword)
			user.PUT("/credentials/trendyol", publicHandler.UpdateTrendyolCredentials)
			user.PUT("/credentials/smartbill", publicHandler.UpdateSmartBillCredentials)

			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.GET("/products", publicHandler.ListProducts)
			user.GET("/shipment-packages", publicHandler.ListShipmentPackages)
			user.GET("/labels/:id", publicHandler.DownloadLabel)
			user.GET("/postal/:code", publicHandler.LookupPostal)

			user.GET("/smartbill/series", publicHandler.ListInvoiceSeries)
			user.GET("/smartbill/invoices", publicHandler.ListSmartBillInvoices)

			user.POST("/invoices/generate", publicHandler.GenerateInvoice)
			user.POST("/invoices/generate-bulk", publicHandler.GenerateInvoicesBulk)
			user.POST("/invoices/upload-bulk", publicHandler.UploadInvoicesBulk)
			user.POST("/invoices/:orderID/upload", publicHandler.UploadInvoice)
			user.POST("/invoices/:orderID/link", publicHandler.SendInvoiceLink)
			user.POST("/invoices/:orderID/reverse", publicHandler.ReverseInvoice)
			user.GET("/invoices", publicHandler.ListInvoiceRecords)
			user.GET("/invoices/:orderID/pdf", publicHandler.GetInvoicePDF)
			user.DELETE("/invoices/:orderID", publicHandler.DeleteInvoiceRecord)
		}

		// 管理员接口（JWT + RBAC）
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/users", adminHandler.GetAdminUsers)
			admin.POST("/users", adminHandler.CreateAdminUser)
			admin.PUT("/users/batch-status", adminHandler.BatchUpdateUserStatus)
			admin.GET("/users/:id", adminHandler.GetAdminUser)
			admin.PUT("/users/:id", adminHandler.UpdateAdminUser)
			admin.DELETE("/users/:id", adminHandler.DeleteAdminUser)
			admin.POST("/users/:id/reset-password", adminHandler.ResetAdminUserPassword)

			admin.GET("/invoices", adminHandler.GetAdminInvoices)
			admin.POST("/invoices", adminHandler.CreateAdminInvoice)
			admin.PUT("/invoices/:id", adminHandler.UpdateAdminInvoice)
			admin.DELETE("/invoices/:id", adminHandler.DeleteAdminInvoice)

			admin.POST("/storage/sweep", adminHandler.SweepStorage)

			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.POST("/authz/roles", adminHandler.CreateAuthzRole)
			admin.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.GET("/authz/users/:id/roles", adminHandler.GetAuthzUserRoles)
			admin.PUT("/authz/users/:id/roles", adminHandler.SetAuthzUserRoles)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
