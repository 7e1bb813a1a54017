package service

import (
	"context"
	"testing"
	"time"

	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/repository"

	"github.com/stretchr/testify/assert"
)

type orderSvcFixture struct {
	svc      *OrderService
	orders   repository.OrderRepository
	items    repository.OrderItemRepository
	mappings repository.SkuMappingRepository
	supplier *fakeSupplier
	market   *fakeMarket
}

func newOrderSvcFixture(t *testing.T) *orderSvcFixture {
	db := setupDB(t)
	f := &orderSvcFixture{
		orders:   repository.NewOrderRepository(db),
		items:    repository.NewOrderItemRepository(db),
		mappings: repository.NewSkuMappingRepository(db),
		supplier: newFakeSupplier(),
		market:   newFakeMarket(),
	}
	f.svc = NewOrderService(f.orders, f.items, f.mappings, f.supplier, f.market)
	return f
}

func (f *orderSvcFixture) seedFulfillableOrder(t *testing.T, accountID int64) *model.Order {
	t.Helper()
	ctx := context.Background()

	order := &model.Order{
		AccountID:     accountID,
		MarketOrderID: "EB-100",
		ShippingAddress: map[string]interface{}{
			"name": "Jane Doe", "city": "Austin", "country_iso": "US",
		},
	}
	assert.NoError(t, f.orders.Create(ctx, order))
	assert.NoError(t, f.items.UpsertFromMarket(ctx, &model.OrderItem{
		OrderID:          order.ID,
		MarketLineItemID: "LI-100",
		SKU:              "MUG-RED",
		Quantity:         2,
	}))
	assert.NoError(t, f.mappings.Upsert(ctx, &model.SkuMapping{
		AccountID:       accountID,
		SKU:             "MUG-RED",
		SupplierVariant: "CJV-42",
		DefaultQuantity: 1,
		IsActive:        true,
	}))
	return order
}

// ==================== 订单同步 ====================

func TestOrderService_SyncOrders(t *testing.T) {
	f := newOrderSvcFixture(t)
	ctx := context.Background()

	f.market.orders = []MarketOrder{
		{
			OrderID:    "EB-1",
			Status:     "PAID",
			Buyer:      "jane77",
			BuyerName:  "Jane",
			GrandTotal: 1999,
			Currency:   "USD",
			Address:    map[string]string{"city": "Austin"},
			LineItems: []MarketLineItem{
				{LineItemID: "LI-1", SKU: "MUG-RED", Quantity: 1, Price: 1999},
			},
		},
		{OrderID: "EB-2", Status: "PAID", BuyerName: "Bob", GrandTotal: 500},
	}

	result, err := f.svc.SyncOrders(ctx, 1, time.Now().Add(-24*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Updated)

	// 再次同步同一批订单：全部走更新
	result, err = f.svc.SyncOrders(ctx, 1, time.Now().Add(-24*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 2, result.Updated)

	saved, err := f.orders.GetByMarketOrderID(ctx, 1, "EB-1")
	assert.NoError(t, err)
	assert.Equal(t, "Jane", saved.BuyerName)
	assert.Equal(t, "Austin", saved.GetShippingAddressField("city"))

	items, _ := f.items.GetByOrderID(ctx, saved.ID)
	assert.Len(t, items, 1, "行项目重复同步不应翻倍")
}

// ==================== 订单履约 ====================

func TestOrderService_FulfillOrder(t *testing.T) {
	f := newOrderSvcFixture(t)
	ctx := context.Background()
	order := f.seedFulfillableOrder(t, 1)

	result, err := f.svc.FulfillOrder(ctx, 1, order.ID)
	assert.NoError(t, err)
	assert.False(t, result.AlreadyExisted)
	assert.NotEmpty(t, result.SupplierOrderID)
	assert.Equal(t, 1, f.supplier.createOrderCalls)

	// 幂等：二次履约直接返回既有单号，不再调用供应商
	again, err := f.svc.FulfillOrder(ctx, 1, order.ID)
	assert.NoError(t, err)
	assert.True(t, again.AlreadyExisted)
	assert.Equal(t, result.SupplierOrderID, again.SupplierOrderID)
	assert.Equal(t, 1, f.supplier.createOrderCalls, "重复履约不应重复下单")
}

func TestOrderService_FulfillOrder_NoMapping(t *testing.T) {
	f := newOrderSvcFixture(t)
	ctx := context.Background()

	order := &model.Order{AccountID: 1, MarketOrderID: "EB-200"}
	assert.NoError(t, f.orders.Create(ctx, order))
	assert.NoError(t, f.items.UpsertFromMarket(ctx, &model.OrderItem{
		OrderID: order.ID, MarketLineItemID: "LI-200", SKU: "UNMAPPED",
	}))

	_, err := f.svc.FulfillOrder(ctx, 1, order.ID)
	assert.ErrorIs(t, err, ErrNoActiveSkuMapping)
	assert.Equal(t, 0, f.supplier.createOrderCalls)
}

func TestOrderService_FulfillOrder_InactiveMapping(t *testing.T) {
	f := newOrderSvcFixture(t)
	ctx := context.Background()
	order := f.seedFulfillableOrder(t, 1)

	assert.NoError(t, f.mappings.UpdateFields(ctx, mustMappingID(t, f, 1, "MUG-RED"),
		map[string]interface{}{"is_active": false}))

	_, err := f.svc.FulfillOrder(ctx, 1, order.ID)
	assert.ErrorIs(t, err, ErrNoActiveSkuMapping)
}

func TestOrderService_FulfillOrder_NotFound(t *testing.T) {
	f := newOrderSvcFixture(t)

	_, err := f.svc.FulfillOrder(context.Background(), 1, 9999)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// 他人订单同样视作不存在
	order := f.seedFulfillableOrder(t, 1)
	_, err = f.svc.FulfillOrder(context.Background(), 2, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// ==================== 物流同步 ====================

func TestOrderService_SyncTracking(t *testing.T) {
	f := newOrderSvcFixture(t)
	ctx := context.Background()
	order := f.seedFulfillableOrder(t, 1)

	fulfilled, err := f.svc.FulfillOrder(ctx, 1, order.ID)
	assert.NoError(t, err)
	f.supplier.tracking[fulfilled.SupplierOrderID] = &SupplierTracking{
		TrackingNumber: "TRK999", CarrierName: "YunExpress",
	}

	result, err := f.svc.SyncTracking(ctx, 1, order.ID)
	assert.NoError(t, err)
	assert.True(t, result.Pushed)
	assert.False(t, result.AlreadyPushed)
	assert.Equal(t, "TRK999", result.TrackingNumber)
	assert.Equal(t, 1, f.market.pushCalls)

	// 幂等：已回传的订单跳过市场调用
	again, err := f.svc.SyncTracking(ctx, 1, order.ID)
	assert.NoError(t, err)
	assert.True(t, again.AlreadyPushed)
	assert.Equal(t, 1, f.market.pushCalls, "重复同步不应重复回传")
}

func TestOrderService_SyncTracking_NotFulfilled(t *testing.T) {
	f := newOrderSvcFixture(t)
	ctx := context.Background()

	order := &model.Order{AccountID: 1, MarketOrderID: "EB-300"}
	assert.NoError(t, f.orders.Create(ctx, order))

	_, err := f.svc.SyncTracking(ctx, 1, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFulfilled)
}

func TestOrderService_SyncTracking_NoTrackingYet(t *testing.T) {
	f := newOrderSvcFixture(t)
	ctx := context.Background()
	order := f.seedFulfillableOrder(t, 1)

	_, err := f.svc.FulfillOrder(ctx, 1, order.ID)
	assert.NoError(t, err)

	// 供应商尚未出单号
	_, err = f.svc.SyncTracking(ctx, 1, order.ID)
	assert.ErrorIs(t, err, ErrOrderNoTracking)
	assert.Equal(t, 0, f.market.pushCalls)
}

func mustMappingID(t *testing.T, f *orderSvcFixture, accountID int64, sku string) int64 {
	t.Helper()
	mapping, err := f.mappings.GetBySKU(context.Background(), accountID, sku)
	assert.NoError(t, err)
	return mapping.ID
}
