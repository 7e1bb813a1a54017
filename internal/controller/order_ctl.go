package controller

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"dropship_hub_v1_202608/internal/api/dto"
	"dropship_hub_v1_202608/internal/middleware"
	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/repository"
	"dropship_hub_v1_202608/internal/service"

	"github.com/gin-gonic/gin"
)

// ==================== OrderController 订单接口 ====================

type OrderController struct {
	OrderService *service.OrderService
	JobRepo      repository.JobRepository
}

func NewOrderController(orderSvc *service.OrderService, jobRepo repository.JobRepository) *OrderController {
	return &OrderController{OrderService: orderSvc, JobRepo: jobRepo}
}

// ListHandler 订单列表
// GET /v1/orders?status=&keyword=&sync=&page=&page_size=
func (ctrl *OrderController) ListHandler(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		return
	}

	// sync=true: 先在线拉一轮市场订单再返回列表
	if req.Sync {
		since := time.Now().Add(-72 * time.Hour)
		if _, err := ctrl.OrderService.SyncOrders(c.Request.Context(), middleware.GetAccountID(c), since); err != nil {
			middleware.RespondError(c, middleware.CodeInternalError, "订单同步失败: "+err.Error())
			return
		}
	}

	orders, total, err := ctrl.OrderService.List(c.Request.Context(), repository.OrderFilter{
		AccountID: middleware.GetAccountID(c),
		Status:    req.Status,
		Keyword:   req.Keyword,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "查询订单失败")
		return
	}

	items := make([]dto.OrderListItem, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderListItem(&orders[i]))
	}
	middleware.RespondOK(c, gin.H{"total": total, "orders": items})
}

// DetailHandler 订单详情
// GET /v1/orders/:id
func (ctrl *OrderController) DetailHandler(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, "订单 ID 非法")
		return
	}

	order, err := ctrl.OrderService.GetByID(c.Request.Context(), middleware.GetAccountID(c), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			middleware.RespondError(c, middleware.CodeNotFound, "订单不存在")
			return
		}
		middleware.RespondError(c, middleware.CodeInternalError, "查询订单失败")
		return
	}

	items := make([]dto.OrderItemVO, 0, len(order.Items))
	for i := range order.Items {
		it := &order.Items[i]
		items = append(items, dto.OrderItemVO{
			ID:       it.ID,
			SKU:      it.SKU,
			Title:    it.Title,
			Quantity: it.Quantity,
			Price:    it.GetPrice(),
		})
	}
	middleware.RespondOK(c, gin.H{"order": toOrderListItem(order), "items": items})
}

// SyncHandler 拉取市场订单
// POST /v1/orders/sync  默认入队异步执行，async=false 时同步执行
func (ctrl *OrderController) SyncHandler(c *gin.Context) {
	req := dto.SyncOrdersRequest{SinceHours: 72, Async: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.RespondError(c, middleware.CodeValidationError, err.Error())
			return
		}
	}
	if req.SinceHours <= 0 {
		req.SinceHours = 72
	}
	accountID := middleware.GetAccountID(c)

	if !req.Async {
		since := time.Now().Add(-time.Duration(req.SinceHours) * time.Hour)
		result, err := ctrl.OrderService.SyncOrders(c.Request.Context(), accountID, since)
		if err != nil {
			middleware.RespondError(c, middleware.CodeInternalError, "订单同步失败: "+err.Error())
			return
		}
		middleware.RespondOK(c, gin.H{"imported": result.Imported, "updated": result.Updated})
		return
	}

	jobID, err := ctrl.enqueue(c, model.JobTypeOrderSync, gin.H{"since_hours": req.SinceHours})
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "任务入队失败")
		return
	}
	middleware.RespondCreated(c, gin.H{"job_id": jobID})
}

// FulfillHandler 创建供应商订单
// POST /v1/orders/:id/fulfill  入队异步执行
func (ctrl *OrderController) FulfillHandler(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, "订单 ID 非法")
		return
	}
	if !ctrl.ensureOrderVisible(c, orderID) {
		return
	}

	jobID, err := ctrl.enqueue(c, model.JobTypeOrderFulfill, gin.H{"order_id": orderID})
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "任务入队失败")
		return
	}
	middleware.RespondCreated(c, gin.H{"job_id": jobID})
}

// TrackingHandler 拉取供应商物流并回传市场
// POST /v1/orders/:id/sync-tracking  入队异步执行
func (ctrl *OrderController) TrackingHandler(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, "订单 ID 非法")
		return
	}
	if !ctrl.ensureOrderVisible(c, orderID) {
		return
	}

	jobID, err := ctrl.enqueue(c, model.JobTypeTrackingSync, gin.H{"order_id": orderID})
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "任务入队失败")
		return
	}
	middleware.RespondCreated(c, gin.H{"job_id": jobID})
}

// ensureOrderVisible 入队前确认订单属于当前账号，避免排队后才报 404
func (ctrl *OrderController) ensureOrderVisible(c *gin.Context, orderID int64) bool {
	_, err := ctrl.OrderService.GetByID(c.Request.Context(), middleware.GetAccountID(c), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			middleware.RespondError(c, middleware.CodeNotFound, "订单不存在")
		} else {
			middleware.RespondError(c, middleware.CodeInternalError, "查询订单失败")
		}
		return false
	}
	return true
}

func (ctrl *OrderController) enqueue(c *gin.Context, jobType model.JobType, payload gin.H) (int64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	job := &model.Job{
		AccountID: middleware.GetAccountID(c),
		Type:      jobType,
		Payload:   raw,
	}
	if err := ctrl.JobRepo.Create(c.Request.Context(), job); err != nil {
		return 0, err
	}
	return job.ID, nil
}

func toOrderListItem(o *model.Order) dto.OrderListItem {
	return dto.OrderListItem{
		ID:              o.ID,
		MarketOrderID:   o.MarketOrderID,
		BuyerName:       o.BuyerName,
		Status:          o.Status,
		MarketStatus:    o.MarketStatus,
		ItemCount:       len(o.Items),
		TotalAmount:     o.GetGrandTotal(),
		Currency:        o.Currency,
		SupplierOrderID: o.SupplierOrderID,
		TrackingNumber:  o.TrackingNumber,
		TrackingPushed:  o.TrackingPushed,
		CreatedAt:       o.CreatedAt,
		FulfilledAt:     o.FulfilledAt,
	}
}
