package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dropship_hub_v1_202608/internal/controller"
	"dropship_hub_v1_202608/internal/repository"
	"dropship_hub_v1_202608/internal/router"
	"dropship_hub_v1_202608/internal/service"
	"dropship_hub_v1_202608/internal/worker"
	"dropship_hub_v1_202608/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 2. 初始化数据库
	db := database.InitDB(getEnv("DATABASE_DSN",
		"host=localhost user=dropship password=dropship dbname=dropship_hub port=5432 sslmode=disable"))

	// 3. 初始化依赖
	deps := initDependencies(db)

	// 4. 启动任务轮询
	deps.Worker.Start()
	defer deps.Worker.Stop()

	// 5. 初始化路由
	r := gin.New()
	router.InitRoutes(r, deps.Controllers, deps.Repos.ApiKey, deps.Repos.RateLimit, deps.Repos.Audit)

	// 6. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
	Worker      *worker.Worker
}

// Repositories 仓库集合
type Repositories struct {
	Account    repository.AccountRepository
	ApiKey     repository.ApiKeyRepository
	RateLimit  repository.RateLimitRepository
	Audit      repository.AuditLogRepository
	Job        repository.JobRepository
	Order      repository.OrderRepository
	OrderItem  repository.OrderItemRepository
	Listing    repository.ListingRepository
	SkuMapping repository.SkuMappingRepository
}

// Services 服务集合
type Services struct {
	Account  *service.AccountService
	ApiKey   *service.ApiKeyService
	Supplier service.SupplierClient
	Market   service.MarketClient
	Order    *service.OrderService
	Listing  *service.ListingService
}

// ==================== 初始化函数 ====================

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 外部客户端 --------
	supplier := service.NewSupplierService(&service.SupplierConfig{
		APIKey: getEnv("SUPPLIER_API_KEY", ""),
		Email:  getEnv("SUPPLIER_EMAIL", ""),
	})
	market := service.NewMarketService(&service.MarketConfig{
		AccessToken: getEnv("MARKET_ACCESS_TOKEN", ""),
	})

	// -------- 业务服务 --------
	services := &Services{
		Account:  service.NewAccountService(repos.Account),
		ApiKey:   service.NewApiKeyService(repos.ApiKey),
		Supplier: supplier,
		Market:   market,
	}
	services.Order = service.NewOrderService(repos.Order, repos.OrderItem, repos.SkuMapping, supplier, market)
	services.Listing = service.NewListingService(repos.Listing, repos.SkuMapping, supplier, market)

	// -------- Worker --------
	handlers := worker.NewHandlerSet(services.Order, services.Listing)
	jobWorker := worker.NewWorker(repos.Job, repos.RateLimit, handlers)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth:    controller.NewAuthController(services.Account),
		ApiKey:  controller.NewApiKeyController(services.ApiKey),
		Order:   controller.NewOrderController(services.Order, repos.Job),
		Job:     controller.NewJobController(repos.Job),
		Listing: controller.NewListingController(services.Listing, repos.Job),
		SkuMap:  controller.NewSkuMappingController(repos.SkuMapping),
		Product: controller.NewProductController(supplier),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		Worker:      jobWorker,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Account:    repository.NewAccountRepository(db),
		ApiKey:     repository.NewApiKeyRepository(db),
		RateLimit:  repository.NewRateLimitRepository(db),
		Audit:      repository.NewAuditLogRepository(db),
		Job:        repository.NewJobRepository(db),
		Order:      repository.NewOrderRepository(db),
		OrderItem:  repository.NewOrderItemRepository(db),
		Listing:    repository.NewListingRepository(db),
		SkuMapping: repository.NewSkuMappingRepository(db),
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
