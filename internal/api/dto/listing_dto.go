package dto

// ==================== 刊登请求 ====================

// PrepareListingRequest 创建草稿参数
type PrepareListingRequest struct {
	SKU           string   `json:"sku" binding:"required"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ImageURLs     []string `json:"image_urls"`
	Source        string   `json:"source"`
	SourceItemID  string   `json:"source_item_id"`
	SourceItemURL string   `json:"source_item_url"`
	Price         float64  `json:"price"`
	Quantity      int      `json:"quantity"`
	MarginPercent float64  `json:"margin_percent"`
}

// PublishListingRequest 发布参数
type PublishListingRequest struct {
	ListingID int64 `json:"listing_id" binding:"required"`
	Async     bool  `json:"async"`
}

// ==================== SKU 映射 ====================

// UpsertSkuMappingRequest SKU 映射创建/更新参数
type UpsertSkuMappingRequest struct {
	SKU              string  `json:"sku" binding:"required"`
	SupplierVariant  string  `json:"supplier_variant" binding:"required"`
	DefaultQuantity  int     `json:"default_quantity"`
	MinMarginPercent float64 `json:"min_margin_percent"`
	IsActive         *bool   `json:"is_active"`
}

// PatchSkuMappingRequest SKU 映射部分更新参数
type PatchSkuMappingRequest struct {
	SupplierVariant  *string  `json:"supplier_variant"`
	DefaultQuantity  *int     `json:"default_quantity"`
	MinMarginPercent *float64 `json:"min_margin_percent"`
	IsActive         *bool    `json:"is_active"`
}

// ==================== 供应商透传 ====================

// FreightRequest 运费试算参数
type FreightRequest struct {
	VariantID   string `json:"variant_id" binding:"required"`
	CountryCode string `json:"country_code" binding:"required"`
	Quantity    int    `json:"quantity"`
}
