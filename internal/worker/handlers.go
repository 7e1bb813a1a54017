package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/service"

	"gorm.io/datatypes"
)

// ==================== Handler 注册表 ====================

// Handler 任务处理函数，返回写入 jobs.output 的结果
type Handler func(ctx context.Context, job *model.Job) (datatypes.JSON, error)

// HandlerSet 按任务类型注册的处理器集合
// 闭集：构造时注册齐全，运行期不再增删
type HandlerSet struct {
	handlers map[model.JobType]Handler
}

// NewHandlerSet 注册全部任务类型的处理器
func NewHandlerSet(orderSvc *service.OrderService, listingSvc *service.ListingService) *HandlerSet {
	h := &HandlerSet{handlers: make(map[model.JobType]Handler)}
	h.handlers[model.JobTypeOrderSync] = orderSyncHandler(orderSvc)
	h.handlers[model.JobTypeOrderFulfill] = orderFulfillHandler(orderSvc)
	h.handlers[model.JobTypeTrackingSync] = trackingSyncHandler(orderSvc)
	h.handlers[model.JobTypeListingPublish] = listingPublishHandler(listingSvc)
	return h
}

// Lookup 查找处理器，未注册的类型返回 false
func (h *HandlerSet) Lookup(jobType model.JobType) (Handler, bool) {
	handler, ok := h.handlers[jobType]
	return handler, ok
}

// ==================== 任务载荷 ====================

// OrderSyncPayload order_sync 载荷
type OrderSyncPayload struct {
	SinceHours int `json:"since_hours"`
}

// OrderRefPayload order_fulfill / tracking_sync 载荷
type OrderRefPayload struct {
	OrderID int64 `json:"order_id"`
}

// ListingRefPayload listing_publish 载荷
type ListingRefPayload struct {
	ListingID int64 `json:"listing_id"`
}

func decodePayload(job *model.Job, out interface{}) error {
	if len(job.Payload) == 0 {
		return fmt.Errorf("任务 %d 缺少载荷", job.ID)
	}
	if err := json.Unmarshal(job.Payload, out); err != nil {
		return fmt.Errorf("任务 %d 载荷解析失败: %w", job.ID, err)
	}
	return nil
}

func encodeOutput(v interface{}) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("结果序列化失败: %w", err)
	}
	return raw, nil
}

// ==================== 各类型处理器 ====================

func orderSyncHandler(orderSvc *service.OrderService) Handler {
	return func(ctx context.Context, job *model.Job) (datatypes.JSON, error) {
		var payload OrderSyncPayload
		if err := decodePayload(job, &payload); err != nil {
			return nil, err
		}
		if payload.SinceHours <= 0 {
			payload.SinceHours = 24
		}
		since := time.Now().Add(-time.Duration(payload.SinceHours) * time.Hour)
		result, err := orderSvc.SyncOrders(ctx, job.AccountID, since)
		if err != nil {
			return nil, err
		}
		return encodeOutput(result)
	}
}

func orderFulfillHandler(orderSvc *service.OrderService) Handler {
	return func(ctx context.Context, job *model.Job) (datatypes.JSON, error) {
		var payload OrderRefPayload
		if err := decodePayload(job, &payload); err != nil {
			return nil, err
		}
		result, err := orderSvc.FulfillOrder(ctx, job.AccountID, payload.OrderID)
		if err != nil {
			return nil, err
		}
		return encodeOutput(result)
	}
}

func trackingSyncHandler(orderSvc *service.OrderService) Handler {
	return func(ctx context.Context, job *model.Job) (datatypes.JSON, error) {
		var payload OrderRefPayload
		if err := decodePayload(job, &payload); err != nil {
			return nil, err
		}
		result, err := orderSvc.SyncTracking(ctx, job.AccountID, payload.OrderID)
		if err != nil {
			return nil, err
		}
		return encodeOutput(result)
	}
}

func listingPublishHandler(listingSvc *service.ListingService) Handler {
	return func(ctx context.Context, job *model.Job) (datatypes.JSON, error) {
		var payload ListingRefPayload
		if err := decodePayload(job, &payload); err != nil {
			return nil, err
		}
		result, err := listingSvc.Publish(ctx, job.AccountID, payload.ListingID)
		if err != nil {
			return nil, err
		}
		return encodeOutput(result)
	}
}
