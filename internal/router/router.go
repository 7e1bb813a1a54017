package router

import (
	"dropship_hub_v1_202608/internal/controller"
	"dropship_hub_v1_202608/internal/middleware"
	"dropship_hub_v1_202608/internal/repository"

	"github.com/gin-gonic/gin"
)

// Controllers 路由依赖的全部控制器
type Controllers struct {
	Auth    *controller.AuthController
	ApiKey  *controller.ApiKeyController
	Order   *controller.OrderController
	Job     *controller.JobController
	Listing *controller.ListingController
	SkuMap  *controller.SkuMappingController
	Product *controller.ProductController
}

// InitRoutes 注册所有路由
// /v1/health 与 /v1/auth/* 免鉴权，其余 /v1 路由一律过认证闸
func InitRoutes(r *gin.Engine, ctrls *Controllers, keyRepo repository.ApiKeyRepository, limitRepo repository.RateLimitRepository, auditRepo repository.AuditLogRepository) {
	// 全局：审计在最外层，panic 被 Recovery 转成 500 后同样留痕
	r.Use(middleware.Audit(auditRepo), middleware.Recovery())

	// 未命中的路由也走统一响应格式
	r.NoRoute(func(c *gin.Context) {
		middleware.RespondError(c, middleware.CodeNotFound, "路由不存在")
	})

	v1 := r.Group("/v1")
	{
		// 健康检查，免鉴权
		v1.GET("/health", func(c *gin.Context) {
			middleware.RespondOK(c, gin.H{"status": "up"})
		})

		// 注册/登录，免鉴权
		auth := v1.Group("/auth")
		{
			auth.POST("/register", ctrls.Auth.RegisterHandler)
			auth.POST("/login", ctrls.Auth.LoginHandler)
		}

		// 以下路由全部要求 API Key 或 JWT 会话
		authed := v1.Group("")
		authed.Use(middleware.Auth(keyRepo, limitRepo))
		{
			keys := authed.Group("/api-keys")
			{
				keys.POST("", ctrls.ApiKey.CreateHandler)
				keys.GET("", ctrls.ApiKey.ListHandler)
				keys.PATCH("/:id", ctrls.ApiKey.PatchHandler)
			}

			orders := authed.Group("/orders")
			{
				orders.GET("", ctrls.Order.ListHandler)
				orders.GET("/:id", ctrls.Order.DetailHandler)
				orders.POST("/sync", ctrls.Order.SyncHandler)
				orders.POST("/:id/fulfill", ctrls.Order.FulfillHandler)
				orders.POST("/:id/sync-tracking", ctrls.Order.TrackingHandler)
			}

			authed.GET("/jobs/:id", ctrls.Job.DetailHandler)

			listings := authed.Group("/listings")
			{
				listings.GET("", ctrls.Listing.ListHandler)
				listings.GET("/:id", ctrls.Listing.DetailHandler)
				listings.POST("/prepare", ctrls.Listing.PrepareHandler)
				listings.POST("/publish", ctrls.Listing.PublishHandler)
			}

			mappings := authed.Group("/sku-map")
			{
				mappings.GET("", ctrls.SkuMap.ListHandler)
				mappings.POST("", ctrls.SkuMap.UpsertHandler)
				mappings.PATCH("/:id", ctrls.SkuMap.PatchHandler)
			}

			products := authed.Group("/products")
			{
				products.GET("/search", ctrls.Product.SearchHandler)
				products.GET("/:id", ctrls.Product.DetailHandler)
				products.POST("/freight", ctrls.Product.FreightHandler)
			}
		}
	}
}
