package repository

import (
	"testing"

	"dropship_hub_v1_202608/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupDB 内存库 + 全量建表
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.Account{},
		&model.ApiKey{},
		&model.RateLimitWindow{},
		&model.AuditLogEntry{},
		&model.Job{},
		&model.Order{},
		&model.OrderItem{},
		&model.Listing{},
		&model.SkuMapping{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}
