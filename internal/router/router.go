package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/relicvault/storefront/internal/cache"
	"github.com/relicvault/storefront/internal/config"
	adminhandlers "github.com/relicvault/storefront/internal/http/handlers/admin"
	publichandlers "github.com/relicvault/storefront/internal/http/handlers/public"
	"github.com/relicvault/storefront/internal/logger"
	"github.com/relicvault/storefront/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sf"
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(ClientSessionMiddleware(cfg.Session))

	optionalAuth := UserAuthMiddleware(c.AuthService, false)
	requiredAuth := UserAuthMiddleware(c.AuthService, true)

	apiV1 := r.Group("/api/v1")
	{
		// 商品浏览
		store := apiV1.Group("/store")
		{
			store.GET("/products", publicHandler.ListProducts)
			store.GET("/products/:id", publicHandler.GetProduct)
		}

		// 购物车
		cart := apiV1.Group("/cart")
		{
			cart.GET("", publicHandler.GetCart)
			cart.DELETE("", publicHandler.ClearCart)
			cart.POST("/items", publicHandler.AddCartItem)
			cart.PATCH("/items/:product_id", publicHandler.UpdateCartItem)
			cart.DELETE("/items/:product_id", publicHandler.RemoveCartItem)
			cart.PUT("/shipping", publicHandler.SetShippingInfo)
		}

		// 结算
		checkout := apiV1.Group("/checkout")
		{
			checkout.POST("/start", publicHandler.StartCheckout)
			checkout.POST("/orders", requiredAuth, publicHandler.PlaceOrder)
		}

		// 登录
		auth := apiV1.Group("/auth")
		{
			auth.GET("/captcha", publicHandler.GetImageCaptcha)
			auth.POST("/login", RateLimitMiddleware(cache.Client(), loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			auth.POST("/social", RateLimitMiddleware(cache.Client(), loginRule, KeyByIP), publicHandler.SocialLogin)
			auth.POST("/logout", optionalAuth, publicHandler.Logout)
		}

		// 管理端
		admin := apiV1.Group("/admin")
		admin.Use(requiredAuth, AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/descriptors", adminHandler.GetDescriptors)
			admin.GET("/authz/policies", adminHandler.GetPolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.POST("/authz/reload", adminHandler.ReloadAuthzPolicies)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.POST("/authz/roles", adminHandler.CreateAuthzRole)
			admin.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/upload/validate", adminHandler.ValidateUpload)

			admin.GET("/:resource", adminHandler.ListTable)
			admin.POST("/:resource", adminHandler.CreateRecord)
			admin.GET("/:resource/view", adminHandler.GetTableView)
			admin.GET("/:resource/export.csv", adminHandler.ExportTableCSV)
			admin.GET("/:resource/export.pdf", adminHandler.ExportTablePDF)
			admin.POST("/:resource/search", adminHandler.SearchTable)
			admin.POST("/:resource/bulk-delete", adminHandler.BulkDeleteRecords)
			admin.POST("/:resource/select-all", adminHandler.SelectAllRows)
			admin.POST("/:resource/rows/:id/expand", adminHandler.ToggleRowExpand)
			admin.POST("/:resource/rows/:id/check", adminHandler.ToggleRowCheck)
			admin.PUT("/:resource/:id", adminHandler.UpdateRecord)
			admin.DELETE("/:resource/:id", adminHandler.DeleteRecord)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
