package controller

import (
	"errors"
	"strconv"

	"dropship_hub_v1_202608/internal/api/dto"
	"dropship_hub_v1_202608/internal/middleware"
	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ==================== SkuMappingController SKU 映射接口 ====================

type SkuMappingController struct {
	MappingRepo repository.SkuMappingRepository
}

func NewSkuMappingController(mappingRepo repository.SkuMappingRepository) *SkuMappingController {
	return &SkuMappingController{MappingRepo: mappingRepo}
}

// ListHandler 映射列表
// GET /v1/sku-map
func (ctrl *SkuMappingController) ListHandler(c *gin.Context) {
	mappings, err := ctrl.MappingRepo.ListByAccount(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "查询 SKU 映射失败")
		return
	}
	middleware.RespondOK(c, gin.H{"mappings": mappings})
}

// UpsertHandler 创建或更新映射，按 (account, sku) 幂等
// POST /v1/sku-map
func (ctrl *SkuMappingController) UpsertHandler(c *gin.Context) {
	var req dto.UpsertSkuMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		return
	}
	accountID := middleware.GetAccountID(c)

	mapping := &model.SkuMapping{
		AccountID:        accountID,
		SKU:              req.SKU,
		SupplierVariant:  req.SupplierVariant,
		DefaultQuantity:  req.DefaultQuantity,
		MinMarginPercent: req.MinMarginPercent,
		IsActive:         true,
	}
	if mapping.DefaultQuantity <= 0 {
		mapping.DefaultQuantity = 1
	}
	if req.IsActive != nil {
		mapping.IsActive = *req.IsActive
	}

	if err := ctrl.MappingRepo.Upsert(c.Request.Context(), mapping); err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "保存 SKU 映射失败")
		return
	}

	saved, err := ctrl.MappingRepo.GetBySKU(c.Request.Context(), accountID, req.SKU)
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "保存 SKU 映射失败")
		return
	}
	middleware.RespondOK(c, gin.H{"mapping": saved})
}

// PatchHandler 部分更新映射
// PATCH /v1/sku-map/:id
func (ctrl *SkuMappingController) PatchHandler(c *gin.Context) {
	mappingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, "映射 ID 非法")
		return
	}

	var req dto.PatchSkuMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		return
	}

	accountID := middleware.GetAccountID(c)
	if _, err := ctrl.MappingRepo.GetByIDForAccount(c.Request.Context(), mappingID, accountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.RespondError(c, middleware.CodeNotFound, "SKU 映射不存在")
			return
		}
		middleware.RespondError(c, middleware.CodeInternalError, "查询 SKU 映射失败")
		return
	}

	fields := map[string]interface{}{}
	if req.SupplierVariant != nil {
		fields["supplier_variant"] = *req.SupplierVariant
	}
	if req.DefaultQuantity != nil {
		fields["default_quantity"] = *req.DefaultQuantity
	}
	if req.MinMarginPercent != nil {
		fields["min_margin_percent"] = *req.MinMarginPercent
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		middleware.RespondError(c, middleware.CodeValidationError, "没有可更新的字段")
		return
	}

	if err := ctrl.MappingRepo.UpdateFields(c.Request.Context(), mappingID, fields); err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "更新 SKU 映射失败")
		return
	}

	updated, err := ctrl.MappingRepo.GetByID(c.Request.Context(), mappingID)
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "更新 SKU 映射失败")
		return
	}
	middleware.RespondOK(c, gin.H{"mapping": updated})
}
