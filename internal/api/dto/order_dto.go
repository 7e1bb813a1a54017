package dto

import "time"

// ==================== 订单请求 ====================

// ListOrdersRequest 订单列表查询参数
type ListOrdersRequest struct {
	Status   string `form:"status"`
	Keyword  string `form:"keyword"`
	Sync     bool   `form:"sync"` // true 时先同步拉取市场订单再返回列表
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// SyncOrdersRequest 订单同步参数
type SyncOrdersRequest struct {
	SinceHours int  `json:"since_hours"` // 拉取最近 N 小时，默认 72
	Async      bool `json:"async"`       // true 走任务队列（默认），false 同步执行
}

// ==================== 订单响应 ====================

// OrderListItem 订单列表项
type OrderListItem struct {
	ID              int64      `json:"id"`
	MarketOrderID   string     `json:"market_order_id"`
	BuyerName       string     `json:"buyer_name"`
	Status          string     `json:"status"`
	MarketStatus    string     `json:"market_status"`
	ItemCount       int        `json:"item_count"`
	TotalAmount     float64    `json:"total_amount"`
	Currency        string     `json:"currency"`
	SupplierOrderID string     `json:"supplier_order_id,omitempty"`
	TrackingNumber  string     `json:"tracking_number,omitempty"`
	TrackingPushed  bool       `json:"tracking_pushed"`
	CreatedAt       time.Time  `json:"created_at"`
	FulfilledAt     *time.Time `json:"fulfilled_at,omitempty"`
}

// OrderItemVO 订单项
type OrderItemVO struct {
	ID       int64   `json:"id"`
	SKU      string  `json:"sku"`
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}
