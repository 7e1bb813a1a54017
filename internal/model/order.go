package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 订单状态常量 ====================

// OrderStatus 本地订单状态
const (
	OrderStatusPending   = "pending"   // 待处理
	OrderStatusFulfilled = "fulfilled" // 已下供应商单
	OrderStatusShipped   = "shipped"   // 已发货
	OrderStatusDelivered = "delivered" // 已签收
	OrderStatusCanceled  = "canceled"  // 已取消
)

// ==================== Order 订单主表 ====================

// Order 市场订单
// 一条记录对应一笔 eBay 订单，供应商下单与物流回传的幂等标记都落在本表
type Order struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	AccountID int64 `gorm:"uniqueIndex:idx_order_account_market;not null"`

	// 市场侧标识，账号内唯一（多账号可各自同步同一市场订单号）
	MarketOrderID string `gorm:"size:64;uniqueIndex:idx_order_account_market;not null"`
	MarketStatus  string `gorm:"size:32"`

	// 买家信息
	BuyerUsername string `gorm:"size:128"`
	BuyerName     string `gorm:"size:255"`

	// 状态
	Status string `gorm:"size:32;index;default:pending"`

	// 收货地址（PostgreSQL JSONB）
	ShippingAddress datatypes.JSONMap `gorm:"type:jsonb"`

	// 金额（分为单位存储）
	SubtotalAmount   int64
	ShippingAmount   int64
	GrandTotalAmount int64
	Currency         string `gorm:"size:10;default:USD"`

	// 供应商下单（幂等标记：非空即已下单）
	SupplierOrderID     string `gorm:"size:64;index"`
	SupplierOrderStatus string `gorm:"size:32"`
	FulfilledAt         *time.Time

	// 物流
	TrackingNumber string `gorm:"size:64;index"`
	CarrierName    string `gorm:"size:64"`

	// 物流回传（幂等标记）
	TrackingPushed   bool `gorm:"default:false"`
	TrackingPushedAt *time.Time

	// 市场原始数据（PostgreSQL JSONB）
	MarketRawData datatypes.JSON `gorm:"type:jsonb"`

	// 同步时间
	MarketCreatedAt *time.Time
	MarketSyncedAt  *time.Time

	// 审计字段
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// 关联
	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (*Order) TableName() string {
	return "orders"
}

// GetGrandTotal 获取总金额（元）
func (o *Order) GetGrandTotal() float64 {
	return float64(o.GrandTotalAmount) / 100
}

// IsFulfilled 是否已创建供应商订单
func (o *Order) IsFulfilled() bool {
	return o.SupplierOrderID != ""
}

// HasTracking 是否已取得物流单号
func (o *Order) HasTracking() bool {
	return o.TrackingNumber != ""
}

// GetShippingAddressField 获取收货地址字段
func (o *Order) GetShippingAddressField(key string) string {
	if o.ShippingAddress == nil {
		return ""
	}
	if v, ok := o.ShippingAddress[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ==================== OrderItem 订单项 ====================

// OrderItem 订单项
type OrderItem struct {
	ID      int64 `gorm:"primaryKey;autoIncrement"`
	OrderID int64 `gorm:"index;not null"`

	// 市场侧行项目标识
	MarketLineItemID string `gorm:"size:64;uniqueIndex;not null"`

	// 商品信息
	SKU   string `gorm:"size:100;index"`
	Title string `gorm:"size:500"`

	// 数量与价格
	Quantity    int `gorm:"default:1"`
	PriceAmount int64
	Currency    string `gorm:"size:10"`

	// 审计
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (*OrderItem) TableName() string {
	return "order_items"
}

// GetPrice 获取单价（元）
func (i *OrderItem) GetPrice() float64 {
	return float64(i.PriceAmount) / 100
}
