package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 错误定义 ====================

type OrderError string

func (e OrderError) Error() string { return string(e) }

const (
	ErrOrderNotFound      OrderError = "order not found"
	ErrOrderNotFulfilled  OrderError = "order has no supplier order yet"
	ErrOrderNoTracking    OrderError = "supplier has not provided tracking yet"
	ErrNoActiveSkuMapping OrderError = "no active sku mapping for order items"
)

// ==================== 结果结构 ====================

// SyncOrdersResult 拉单结果
type SyncOrdersResult struct {
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
}

// FulfillResult 履约结果
type FulfillResult struct {
	SupplierOrderID string `json:"supplier_order_id"`
	AlreadyExisted  bool   `json:"already_existed"`
}

// TrackingResult 物流同步结果
type TrackingResult struct {
	TrackingNumber string `json:"tracking_number"`
	CarrierName    string `json:"carrier_name"`
	Pushed         bool   `json:"pushed"`
	AlreadyPushed  bool   `json:"already_pushed"`
}

// ==================== OrderService 订单服务 ====================

// OrderService 订单同步与履约服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	itemRepo    repository.OrderItemRepository
	mappingRepo repository.SkuMappingRepository
	supplier    SupplierClient
	market      MarketClient
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	mappingRepo repository.SkuMappingRepository,
	supplier SupplierClient,
	market MarketClient,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		mappingRepo: mappingRepo,
		supplier:    supplier,
		market:      market,
	}
}

// ==================== 订单同步 ====================

// SyncOrders 从市场拉取订单并入库
// 按 market_order_id 幂等 upsert，重复同步不会产生重复订单
func (s *OrderService) SyncOrders(ctx context.Context, accountID int64, since time.Time) (*SyncOrdersResult, error) {
	marketOrders, err := s.market.FetchOrders(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("拉取市场订单失败: %w", err)
	}

	result := &SyncOrdersResult{}
	now := time.Now()

	for _, mo := range marketOrders {
		existing, err := s.orderRepo.GetByMarketOrderID(ctx, accountID, mo.OrderID)
		isNew := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !isNew {
			return nil, err
		}

		order := &model.Order{
			AccountID:        accountID,
			MarketOrderID:    mo.OrderID,
			MarketStatus:     mo.Status,
			BuyerUsername:    mo.Buyer,
			BuyerName:        mo.BuyerName,
			SubtotalAmount:   mo.Subtotal,
			ShippingAmount:   mo.Shipping,
			GrandTotalAmount: mo.GrandTotal,
			Currency:         mo.Currency,
			MarketSyncedAt:   &now,
		}
		if !mo.CreatedAt.IsZero() {
			created := mo.CreatedAt
			order.MarketCreatedAt = &created
		}
		if mo.Address != nil {
			order.ShippingAddress = datatypes.JSONMap{}
			for k, v := range mo.Address {
				order.ShippingAddress[k] = v
			}
		}
		if raw, err := json.Marshal(mo); err == nil {
			order.MarketRawData = raw
		}
		if !isNew {
			// 保留本地已有的状态与幂等标记
			order.ID = existing.ID
		}

		if err := s.orderRepo.UpsertFromMarket(ctx, order); err != nil {
			return nil, fmt.Errorf("订单 %s 入库失败: %w", mo.OrderID, err)
		}

		// 行项目按 market_line_item_id 幂等
		saved, err := s.orderRepo.GetByMarketOrderID(ctx, accountID, mo.OrderID)
		if err != nil {
			return nil, err
		}
		for _, li := range mo.LineItems {
			item := &model.OrderItem{
				OrderID:          saved.ID,
				MarketLineItemID: li.LineItemID,
				SKU:              li.SKU,
				Title:            li.Title,
				Quantity:         li.Quantity,
				PriceAmount:      li.Price,
				Currency:         li.Currency,
			}
			if err := s.itemRepo.UpsertFromMarket(ctx, item); err != nil {
				return nil, fmt.Errorf("订单项 %s 入库失败: %w", li.LineItemID, err)
			}
		}

		if isNew {
			result.Imported++
		} else {
			result.Updated++
		}
	}

	log.Printf("[OrderService] 订单同步完成: 新增 %d, 更新 %d", result.Imported, result.Updated)
	return result, nil
}

// ==================== 订单履约 ====================

// FulfillOrder 为订单创建供应商订单
// 幂等：已有供应商单号时直接返回既有单号，不重复下单
func (s *OrderService) FulfillOrder(ctx context.Context, accountID, orderID int64) (*FulfillResult, error) {
	order, err := s.orderRepo.GetByIDForAccount(ctx, orderID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	// 幂等检查：已下单直接返回
	if order.IsFulfilled() {
		return &FulfillResult{SupplierOrderID: order.SupplierOrderID, AlreadyExisted: true}, nil
	}

	// 按 SKU 映射解析供应商变体
	req := &SupplierOrderRequest{
		OrderNumber: order.MarketOrderID,
		Consignee: map[string]string{
			"name":        order.GetShippingAddressField("name"),
			"address":     order.GetShippingAddressField("first_line"),
			"address2":    order.GetShippingAddressField("second_line"),
			"city":        order.GetShippingAddressField("city"),
			"province":    order.GetShippingAddressField("state"),
			"zip":         order.GetShippingAddressField("zip"),
			"country_iso": order.GetShippingAddressField("country_iso"),
		},
	}
	for _, item := range order.Items {
		mapping, err := s.mappingRepo.GetBySKU(ctx, accountID, item.SKU)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: sku=%s", ErrNoActiveSkuMapping, item.SKU)
			}
			return nil, err
		}
		if !mapping.IsActive {
			return nil, fmt.Errorf("%w: sku=%s 已停用", ErrNoActiveSkuMapping, item.SKU)
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = mapping.DefaultQuantity
		}
		req.Items = append(req.Items, SupplierOrderItem{
			VariantID: mapping.SupplierVariant,
			Quantity:  quantity,
		})
	}
	if len(req.Items) == 0 {
		return nil, ErrNoActiveSkuMapping
	}

	supplierOrderID, err := s.supplier.CreateOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("供应商下单失败: %w", err)
	}

	// 条件写入：并发下单时只有一方写入成功，落败方返回既有单号
	written, err := s.orderRepo.MarkFulfilled(ctx, orderID, supplierOrderID)
	if err != nil {
		return nil, err
	}
	if !written {
		current, err := s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		log.Printf("[OrderService] 订单 %d 已被并发履约，保留供应商单号 %s", orderID, current.SupplierOrderID)
		return &FulfillResult{SupplierOrderID: current.SupplierOrderID, AlreadyExisted: true}, nil
	}

	log.Printf("[OrderService] 订单 %d 履约成功, 供应商单号 %s", orderID, supplierOrderID)
	return &FulfillResult{SupplierOrderID: supplierOrderID}, nil
}

// ==================== 物流同步 ====================

// SyncTracking 拉取供应商物流并回传市场
// 幂等：tracking_pushed 已置位时跳过市场调用直接返回成功
func (s *OrderService) SyncTracking(ctx context.Context, accountID, orderID int64) (*TrackingResult, error) {
	order, err := s.orderRepo.GetByIDForAccount(ctx, orderID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !order.IsFulfilled() {
		return nil, ErrOrderNotFulfilled
	}

	// 已回传过，不再调用市场 API
	if order.TrackingPushed {
		return &TrackingResult{
			TrackingNumber: order.TrackingNumber,
			CarrierName:    order.CarrierName,
			Pushed:         true,
			AlreadyPushed:  true,
		}, nil
	}

	trackingNumber := order.TrackingNumber
	carrierName := order.CarrierName

	// 本地无单号时先向供应商查询
	if trackingNumber == "" {
		tracking, err := s.supplier.GetTracking(ctx, order.SupplierOrderID)
		if err != nil {
			return nil, fmt.Errorf("查询供应商物流失败: %w", err)
		}
		if tracking.TrackingNumber == "" {
			return nil, ErrOrderNoTracking
		}
		trackingNumber = tracking.TrackingNumber
		carrierName = tracking.CarrierName
		if err := s.orderRepo.SetTracking(ctx, orderID, trackingNumber, carrierName); err != nil {
			return nil, err
		}
	}

	if err := s.market.PushTracking(ctx, order.MarketOrderID, trackingNumber, carrierName); err != nil {
		return nil, fmt.Errorf("回传市场物流失败: %w", err)
	}

	// 条件置位：并发回传时只记录一次
	if _, err := s.orderRepo.MarkTrackingPushed(ctx, orderID); err != nil {
		return nil, err
	}

	log.Printf("[OrderService] 订单 %d 物流回传完成: %s/%s", orderID, carrierName, trackingNumber)
	return &TrackingResult{
		TrackingNumber: trackingNumber,
		CarrierName:    carrierName,
		Pushed:         true,
	}, nil
}

// ==================== 查询 ====================

// List 订单列表
func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int64, error) {
	return s.orderRepo.List(ctx, filter)
}

// GetByID 订单详情
func (s *OrderService) GetByID(ctx context.Context, accountID, orderID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByIDForAccount(ctx, orderID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}
