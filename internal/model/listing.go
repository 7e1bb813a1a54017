package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== Listing 状态常量 ====================

const (
	ListingStatusDraft     = "draft"     // 草稿，未发布
	ListingStatusPublished = "published" // 已发布
	ListingStatusError     = "error"     // 发布失败
)

// ListingSource 货源平台
const (
	ListingSourceAmazon = "amazon"
	ListingSourceCJ     = "cj"
)

// ==================== Listing 商品刊登 ====================

// Listing 待刊登/已刊登商品
// OfferID 非空表示市场侧已存在 offer，再次发布走更新而非新建
type Listing struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	AccountID int64 `gorm:"uniqueIndex:idx_listing_account_sku;not null"`

	// 商品信息
	SKU         string `gorm:"size:100;uniqueIndex:idx_listing_account_sku"`
	Title       string `gorm:"size:500"`
	Description string `gorm:"type:text"`

	// 图片
	ImageURLs pq.StringArray `gorm:"type:text[]"`

	// 货源
	Source         string `gorm:"size:32"`
	SourceItemID   string `gorm:"size:64;index"`
	SourceItemURL  string `gorm:"size:500"`
	SourceCostCent int64

	// 定价与库存
	PriceAmount int64
	Quantity    int    `gorm:"default:1"`
	Currency    string `gorm:"size:10;default:USD"`

	// 市场侧标识（幂等标记：OfferID 非空即已存在 offer）
	OfferID         string `gorm:"size:64;index"`
	MarketListingID string `gorm:"size:64;index"`

	// 状态
	Status       string `gorm:"size:16;index;default:draft"`
	PublishError string `gorm:"type:text"`
	PublishedAt  *time.Time

	// 货源原始数据（PostgreSQL JSONB）
	SourceRawData datatypes.JSON `gorm:"type:jsonb"`

	// 审计
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (*Listing) TableName() string {
	return "listings"
}

// GetPrice 获取售价（元）
func (l *Listing) GetPrice() float64 {
	return float64(l.PriceAmount) / 100
}

// IsPublished 市场侧是否已有 offer
func (l *Listing) IsPublished() bool {
	return l.OfferID != ""
}
