package controller

import (
	"dropship_hub_v1_202608/internal/api/dto"
	"dropship_hub_v1_202608/internal/middleware"
	"dropship_hub_v1_202608/internal/service"

	"github.com/gin-gonic/gin"
)

// ==================== ProductController 货源商品接口 ====================

// ProductController 供应商商品透传接口
// 不落库，直接代理供应商 API，供选品端使用
type ProductController struct {
	Supplier service.SupplierClient
}

func NewProductController(supplier service.SupplierClient) *ProductController {
	return &ProductController{Supplier: supplier}
}

// SearchHandler 货源搜索
// GET /v1/products/search?keyword=&page=&page_size=
func (ctrl *ProductController) SearchHandler(c *gin.Context) {
	var req dto.SearchProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		return
	}

	products, err := ctrl.Supplier.SearchProducts(c.Request.Context(), req.Keyword, req.Page, req.PageSize)
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "货源搜索失败: "+err.Error())
		return
	}
	middleware.RespondOK(c, gin.H{"products": products})
}

// DetailHandler 货源商品详情
// GET /v1/products/:id
func (ctrl *ProductController) DetailHandler(c *gin.Context) {
	productID := c.Param("id")
	if productID == "" {
		middleware.RespondError(c, middleware.CodeValidationError, "商品 ID 非法")
		return
	}

	product, err := ctrl.Supplier.GetProduct(c.Request.Context(), productID)
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "查询货源商品失败: "+err.Error())
		return
	}
	middleware.RespondOK(c, gin.H{"product": product})
}

// FreightHandler 运费试算
// POST /v1/products/freight
func (ctrl *ProductController) FreightHandler(c *gin.Context) {
	var req dto.FreightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	quotes, err := ctrl.Supplier.CalculateFreight(c.Request.Context(), req.VariantID, req.CountryCode, req.Quantity)
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "运费试算失败: "+err.Error())
		return
	}
	middleware.RespondOK(c, gin.H{"quotes": quotes})
}
