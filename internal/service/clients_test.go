package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"dropship_hub_v1_202608/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupDB 内存库 + 全量建表
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接数据库失败: %v", err)
	}
	err = db.AutoMigrate(
		&model.Account{}, &model.ApiKey{}, &model.RateLimitWindow{}, &model.AuditLogEntry{},
		&model.Job{}, &model.Order{}, &model.OrderItem{}, &model.Listing{}, &model.SkuMapping{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// ==================== 假供应商客户端 ====================

// fakeSupplier 记录调用次数的内存实现
type fakeSupplier struct {
	createOrderCalls int
	trackingCalls    int
	failCreateOrder  bool

	products map[string]*SupplierProduct
	tracking map[string]*SupplierTracking
}

func newFakeSupplier() *fakeSupplier {
	return &fakeSupplier{
		products: map[string]*SupplierProduct{},
		tracking: map[string]*SupplierTracking{},
	}
}

func (f *fakeSupplier) SearchProducts(ctx context.Context, keyword string, page, pageSize int) ([]SupplierProduct, error) {
	var out []SupplierProduct
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeSupplier) GetProduct(ctx context.Context, productID string) (*SupplierProduct, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, errors.New("product not found")
	}
	return p, nil
}

func (f *fakeSupplier) CalculateFreight(ctx context.Context, variantID, countryCode string, quantity int) ([]FreightQuote, error) {
	return []FreightQuote{{LogisticName: "YunExpress", Price: 3.5, DeliveryDays: "7-12"}}, nil
}

func (f *fakeSupplier) CreateOrder(ctx context.Context, req *SupplierOrderRequest) (string, error) {
	f.createOrderCalls++
	if f.failCreateOrder {
		return "", errors.New("supplier unavailable")
	}
	return fmt.Sprintf("CJ-%s-%d", req.OrderNumber, f.createOrderCalls), nil
}

func (f *fakeSupplier) GetTracking(ctx context.Context, supplierOrderID string) (*SupplierTracking, error) {
	f.trackingCalls++
	tr, ok := f.tracking[supplierOrderID]
	if !ok {
		return &SupplierTracking{}, nil
	}
	return tr, nil
}

// ==================== 假市场客户端 ====================

// fakeMarket 记录调用次数的内存实现
type fakeMarket struct {
	orders []MarketOrder

	offersBySKU      map[string]string
	createOfferCalls int
	updateOfferCalls int
	pushCalls        int
	failPush         bool
	failPublish      bool
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{offersBySKU: map[string]string{}}
}

func (f *fakeMarket) FetchOrders(ctx context.Context, since time.Time) ([]MarketOrder, error) {
	return f.orders, nil
}

func (f *fakeMarket) GetOfferBySKU(ctx context.Context, sku string) (string, error) {
	return f.offersBySKU[sku], nil
}

func (f *fakeMarket) CreateOffer(ctx context.Context, req *OfferRequest) (string, error) {
	f.createOfferCalls++
	offerID := fmt.Sprintf("OFFER-%d", f.createOfferCalls)
	f.offersBySKU[req.SKU] = offerID
	return offerID, nil
}

func (f *fakeMarket) UpdateOffer(ctx context.Context, offerID string, req *OfferRequest) error {
	f.updateOfferCalls++
	return nil
}

func (f *fakeMarket) PublishOffer(ctx context.Context, offerID string) (string, error) {
	if f.failPublish {
		return "", errors.New("market rejected offer")
	}
	return "LISTING-" + offerID, nil
}

func (f *fakeMarket) PushTracking(ctx context.Context, marketOrderID, trackingNumber, carrierName string) error {
	f.pushCalls++
	if f.failPush {
		return errors.New("market push failed")
	}
	return nil
}
