package dto

// ==================== 货源商品请求 ====================

// SearchProductsRequest 货源搜索参数
type SearchProductsRequest struct {
	Keyword  string `form:"keyword" binding:"required"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
