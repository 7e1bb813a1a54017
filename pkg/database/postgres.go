package database

import (
	"log"
	"os"
	"time"

	"dropship_hub_v1_202608/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AllModels 全部需要迁移的模型
// 新增表在这里登记，InitDB 统一建表
func AllModels() []interface{} {
	return []interface{}{
		&model.Account{},
		&model.ApiKey{},
		&model.RateLimitWindow{},
		&model.AuditLogEntry{},
		&model.Job{},
		&model.Order{},
		&model.OrderItem{},
		&model.Listing{},
		&model.SkuMapping{},
	}
}

// InitDB 初始化数据库连接并自动迁移
// dsn: PostgreSQL 连接字符串
func InitDB(dsn string) *gorm.DB {
	// 开发环境打印 SQL，生产环境只记录错误
	logMode := logger.Error
	if os.Getenv("DB_DEBUG") == "true" {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("获取底层 SQL DB 失败: %v", err)
	}

	// 连接池参数
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(AllModels()...); err != nil {
		log.Fatalf("自动建表出错: %v", err)
	}

	log.Println("数据库连接成功")
	return db
}
