package controller

import (
	"encoding/json"
	"errors"
	"strconv"

	"dropship_hub_v1_202608/internal/api/dto"
	"dropship_hub_v1_202608/internal/middleware"
	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/repository"
	"dropship_hub_v1_202608/internal/service"

	"github.com/gin-gonic/gin"
)

// ==================== ListingController 刊登接口 ====================

type ListingController struct {
	ListingService *service.ListingService
	JobRepo        repository.JobRepository
}

func NewListingController(listingSvc *service.ListingService, jobRepo repository.JobRepository) *ListingController {
	return &ListingController{ListingService: listingSvc, JobRepo: jobRepo}
}

// ListHandler 刊登列表
// GET /v1/listings?status=&source=&keyword=&page=&page_size=
func (ctrl *ListingController) ListHandler(c *gin.Context) {
	filter := repository.ListingFilter{
		AccountID: middleware.GetAccountID(c),
		Status:    c.Query("status"),
		Source:    c.Query("source"),
		Keyword:   c.Query("keyword"),
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.PageSize, _ = strconv.Atoi(c.Query("page_size"))

	listings, total, err := ctrl.ListingService.List(c.Request.Context(), filter)
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "查询刊登失败")
		return
	}
	middleware.RespondOK(c, gin.H{"total": total, "listings": listings})
}

// DetailHandler 刊登详情
// GET /v1/listings/:id
func (ctrl *ListingController) DetailHandler(c *gin.Context) {
	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, "刊登 ID 非法")
		return
	}

	listing, err := ctrl.ListingService.GetByID(c.Request.Context(), middleware.GetAccountID(c), listingID)
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			middleware.RespondError(c, middleware.CodeNotFound, "刊登不存在")
			return
		}
		middleware.RespondError(c, middleware.CodeInternalError, "查询刊登失败")
		return
	}
	middleware.RespondOK(c, gin.H{"listing": listing})
}

// PrepareHandler 创建草稿（可从货源商品自动填充并定价）
// POST /v1/listings/prepare
func (ctrl *ListingController) PrepareHandler(c *gin.Context) {
	var req dto.PrepareListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		return
	}

	listing, err := ctrl.ListingService.Prepare(c.Request.Context(), middleware.GetAccountID(c), &service.PrepareListingRequest{
		SKU:           req.SKU,
		Title:         req.Title,
		Description:   req.Description,
		ImageURLs:     req.ImageURLs,
		Source:        req.Source,
		SourceItemID:  req.SourceItemID,
		SourceItemURL: req.SourceItemURL,
		PriceCent:     int64(req.Price * 100),
		Quantity:      req.Quantity,
		MarginPercent: req.MarginPercent,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrListingNoSKU), errors.Is(err, service.ErrMarginTooLow):
			middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		case errors.Is(err, service.ErrSourceUnresolved):
			middleware.RespondError(c, middleware.CodeValidationError, "货源商品解析失败")
		default:
			middleware.RespondError(c, middleware.CodeInternalError, "创建草稿失败")
		}
		return
	}
	middleware.RespondCreated(c, gin.H{"listing": listing})
}

// PublishHandler 发布刊登
// POST /v1/listings/publish  默认入队异步执行，async=false 时同步执行
func (ctrl *ListingController) PublishHandler(c *gin.Context) {
	var req dto.PublishListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		return
	}
	accountID := middleware.GetAccountID(c)

	// 入队前确认刊登归属
	if _, err := ctrl.ListingService.GetByID(c.Request.Context(), accountID, req.ListingID); err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			middleware.RespondError(c, middleware.CodeNotFound, "刊登不存在")
			return
		}
		middleware.RespondError(c, middleware.CodeInternalError, "查询刊登失败")
		return
	}

	if !req.Async {
		result, err := ctrl.ListingService.Publish(c.Request.Context(), accountID, req.ListingID)
		if err != nil {
			if errors.Is(err, service.ErrMarginTooLow) {
				middleware.RespondError(c, middleware.CodeValidationError, err.Error())
				return
			}
			middleware.RespondError(c, middleware.CodeInternalError, "发布失败: "+err.Error())
			return
		}
		middleware.RespondOK(c, gin.H{"result": result})
		return
	}

	raw, _ := json.Marshal(gin.H{"listing_id": req.ListingID})
	job := &model.Job{
		AccountID: accountID,
		Type:      model.JobTypeListingPublish,
		Payload:   raw,
	}
	if err := ctrl.JobRepo.Create(c.Request.Context(), job); err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "任务入队失败")
		return
	}
	middleware.RespondCreated(c, gin.H{"job_id": job.ID})
}
