package model

import (
	"time"

	"gorm.io/gorm"
)

// ==================== SkuMapping SKU 映射 ====================

// SkuMapping 市场 SKU 与供应商变体的映射
// 履约时据此决定向供应商下哪个变体，(account_id, sku) 唯一
type SkuMapping struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	AccountID int64 `gorm:"uniqueIndex:idx_mapping_account_sku;not null"`

	SKU              string `gorm:"size:100;uniqueIndex:idx_mapping_account_sku;not null"`
	SupplierVariant  string `gorm:"size:64;not null"`
	DefaultQuantity  int    `gorm:"default:1"`
	MinMarginPercent float64

	IsActive bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (*SkuMapping) TableName() string {
	return "sku_mappings"
}
