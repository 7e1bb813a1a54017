package repository

import (
	"context"
	"testing"

	"dropship_hub_v1_202608/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestOrderRepository_UpsertFromMarket(t *testing.T) {
	repo := NewOrderRepository(setupDB(t))
	ctx := context.Background()

	first := &model.Order{
		AccountID:        1,
		MarketOrderID:    "EB-1001",
		MarketStatus:     "PAID",
		BuyerName:        "Jane",
		GrandTotalAmount: 2599,
	}
	assert.NoError(t, repo.UpsertFromMarket(ctx, first))

	// 同一市场单号再次导入：更新而非新建
	second := &model.Order{
		AccountID:        1,
		MarketOrderID:    "EB-1001",
		MarketStatus:     "SHIPPED",
		BuyerName:        "Jane",
		GrandTotalAmount: 2599,
	}
	assert.NoError(t, repo.UpsertFromMarket(ctx, second))

	var count int64
	repo.(*orderRepository).db.Model(&model.Order{}).Count(&count)
	assert.Equal(t, int64(1), count, "重复导入不应产生第二条订单")

	saved, err := repo.GetByMarketOrderID(ctx, 1, "EB-1001")
	assert.NoError(t, err)
	assert.Equal(t, "SHIPPED", saved.MarketStatus)
}

func TestOrderRepository_UpsertScopedByAccount(t *testing.T) {
	repo := NewOrderRepository(setupDB(t))
	ctx := context.Background()

	// 两个账号同步同一市场单号：各自独立成行
	assert.NoError(t, repo.UpsertFromMarket(ctx, &model.Order{
		AccountID: 1, MarketOrderID: "EB-1001", MarketStatus: "PAID",
	}))
	assert.NoError(t, repo.UpsertFromMarket(ctx, &model.Order{
		AccountID: 2, MarketOrderID: "EB-1001", MarketStatus: "SHIPPED",
	}))

	var count int64
	repo.(*orderRepository).db.Model(&model.Order{}).Count(&count)
	assert.Equal(t, int64(2), count, "不同账号的同名市场单号应各占一行")

	mine, err := repo.GetByMarketOrderID(ctx, 1, "EB-1001")
	assert.NoError(t, err)
	assert.Equal(t, "PAID", mine.MarketStatus)

	theirs, err := repo.GetByMarketOrderID(ctx, 2, "EB-1001")
	assert.NoError(t, err)
	assert.Equal(t, "SHIPPED", theirs.MarketStatus)
}

func TestOrderRepository_MarkFulfilled(t *testing.T) {
	repo := NewOrderRepository(setupDB(t))
	ctx := context.Background()

	order := &model.Order{AccountID: 1, MarketOrderID: "EB-2001"}
	assert.NoError(t, repo.Create(ctx, order))

	// 首次写入成功
	written, err := repo.MarkFulfilled(ctx, order.ID, "CJ-777")
	assert.NoError(t, err)
	assert.True(t, written)

	saved, _ := repo.GetByID(ctx, order.ID)
	assert.Equal(t, "CJ-777", saved.SupplierOrderID)
	assert.Equal(t, model.OrderStatusFulfilled, saved.Status)
	assert.NotNil(t, saved.FulfilledAt)

	// 二次写入落空，不覆盖既有单号
	written, err = repo.MarkFulfilled(ctx, order.ID, "CJ-888")
	assert.NoError(t, err)
	assert.False(t, written)

	saved, _ = repo.GetByID(ctx, order.ID)
	assert.Equal(t, "CJ-777", saved.SupplierOrderID)
}

func TestOrderRepository_MarkTrackingPushed(t *testing.T) {
	repo := NewOrderRepository(setupDB(t))
	ctx := context.Background()

	order := &model.Order{AccountID: 1, MarketOrderID: "EB-3001", SupplierOrderID: "CJ-1"}
	assert.NoError(t, repo.Create(ctx, order))
	assert.NoError(t, repo.SetTracking(ctx, order.ID, "TRK123", "YunExpress"))

	written, err := repo.MarkTrackingPushed(ctx, order.ID)
	assert.NoError(t, err)
	assert.True(t, written)

	saved, _ := repo.GetByID(ctx, order.ID)
	assert.True(t, saved.TrackingPushed)
	assert.NotNil(t, saved.TrackingPushedAt)
	assert.Equal(t, "TRK123", saved.TrackingNumber)

	// 置位后再次标记落空
	written, err = repo.MarkTrackingPushed(ctx, order.ID)
	assert.NoError(t, err)
	assert.False(t, written)
}

func TestOrderItemRepository_UpsertFromMarket(t *testing.T) {
	db := setupDB(t)
	orderRepo := NewOrderRepository(db)
	itemRepo := NewOrderItemRepository(db)
	ctx := context.Background()

	order := &model.Order{AccountID: 1, MarketOrderID: "EB-4001"}
	assert.NoError(t, orderRepo.Create(ctx, order))

	item := &model.OrderItem{
		OrderID:          order.ID,
		MarketLineItemID: "LI-1",
		SKU:              "MUG-RED",
		Quantity:         2,
	}
	assert.NoError(t, itemRepo.UpsertFromMarket(ctx, item))

	// 同一行项目重复导入只保留一条
	dup := &model.OrderItem{
		OrderID:          order.ID,
		MarketLineItemID: "LI-1",
		SKU:              "MUG-RED",
		Quantity:         3,
	}
	assert.NoError(t, itemRepo.UpsertFromMarket(ctx, dup))

	items, err := itemRepo.GetByOrderID(ctx, order.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestOrderRepository_ListFilter(t *testing.T) {
	repo := NewOrderRepository(setupDB(t))
	ctx := context.Background()

	assert.NoError(t, repo.Create(ctx, &model.Order{AccountID: 1, MarketOrderID: "EB-A", Status: model.OrderStatusPending, BuyerName: "Alice"}))
	assert.NoError(t, repo.Create(ctx, &model.Order{AccountID: 1, MarketOrderID: "EB-B", Status: model.OrderStatusFulfilled, BuyerName: "Bob"}))
	assert.NoError(t, repo.Create(ctx, &model.Order{AccountID: 2, MarketOrderID: "EB-C", Status: model.OrderStatusPending, BuyerName: "Carol"}))

	// 账号隔离
	orders, total, err := repo.List(ctx, OrderFilter{AccountID: 1})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)

	// 状态过滤
	orders, total, err = repo.List(ctx, OrderFilter{AccountID: 1, Status: model.OrderStatusFulfilled})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "EB-B", orders[0].MarketOrderID)
}
