package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 配置 ====================

// SupplierConfig 供应商（CJ 风格）API 配置
type SupplierConfig struct {
	APIKey  string
	Email   string
	BaseURL string // 默认 https://developers.cjdropshipping.com/api2.0
	Timeout time.Duration
}

// ==================== 统一数据结构 ====================

// SupplierProduct 供应商商品
type SupplierProduct struct {
	ProductID   string            `json:"product_id"`
	Name        string            `json:"name"`
	SKU         string            `json:"sku"`
	Price       float64           `json:"price"`
	Currency    string            `json:"currency"`
	Images      []string          `json:"images"`
	Description string            `json:"description"`
	Variants    []SupplierVariant `json:"variants,omitempty"`
}

// SupplierVariant 供应商变体
type SupplierVariant struct {
	VariantID  string  `json:"variant_id"`
	SKU        string  `json:"sku"`
	Price      float64 `json:"price"`
	Properties string  `json:"properties"`
}

// FreightQuote 运费报价
type FreightQuote struct {
	LogisticName string  `json:"logistic_name"`
	Price        float64 `json:"price"`
	DeliveryDays string  `json:"delivery_days"`
}

// SupplierOrderRequest 供应商下单请求
type SupplierOrderRequest struct {
	OrderNumber string              `json:"order_number"` // 本地订单号，供应商侧幂等键
	Consignee   map[string]string   `json:"consignee"`
	Items       []SupplierOrderItem `json:"items"`
}

// SupplierOrderItem 供应商下单行项目
type SupplierOrderItem struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// SupplierTracking 供应商物流信息
type SupplierTracking struct {
	TrackingNumber string `json:"tracking_number"`
	CarrierName    string `json:"carrier_name"`
	Status         string `json:"status"`
}

// ==================== 接口定义 ====================

// SupplierClient 供应商 API 客户端接口
// Worker 与服务层只依赖接口，测试用假实现
type SupplierClient interface {
	SearchProducts(ctx context.Context, keyword string, page, pageSize int) ([]SupplierProduct, error)
	GetProduct(ctx context.Context, productID string) (*SupplierProduct, error)
	CalculateFreight(ctx context.Context, variantID, countryCode string, quantity int) ([]FreightQuote, error)
	CreateOrder(ctx context.Context, req *SupplierOrderRequest) (string, error)
	GetTracking(ctx context.Context, supplierOrderID string) (*SupplierTracking, error)
}

// ==================== 服务实现 ====================

// SupplierService 基于 resty 的供应商客户端
type SupplierService struct {
	config *SupplierConfig
	client *resty.Client
}

// NewSupplierService 创建供应商客户端
func NewSupplierService(cfg *SupplierConfig) *SupplierService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://developers.cjdropshipping.com/api2.0"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetHeader("CJ-Access-Token", cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &SupplierService{config: cfg, client: client}
}

// supplierEnvelope 供应商统一响应壳
type supplierEnvelope struct {
	Result  bool            `json:"result"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// SearchProducts 商品搜索
func (s *SupplierService) SearchProducts(ctx context.Context, keyword string, page, pageSize int) ([]SupplierProduct, error) {
	if pageSize <= 0 {
		pageSize = 20
	}

	var envelope supplierEnvelope
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"productNameEn": keyword,
			"pageNum":       fmt.Sprintf("%d", page),
			"pageSize":      fmt.Sprintf("%d", pageSize),
		}).
		SetResult(&envelope).
		Get("/v1/product/list")
	if err != nil {
		return nil, fmt.Errorf("供应商商品搜索请求失败: %w", err)
	}
	if resp.IsError() || !envelope.Result {
		return nil, fmt.Errorf("供应商商品搜索被拒绝: %s", envelope.Message)
	}

	var payload struct {
		List []supplierProductRaw `json:"list"`
	}
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return nil, fmt.Errorf("供应商响应解析失败: %w", err)
	}

	products := make([]SupplierProduct, len(payload.List))
	for i, raw := range payload.List {
		products[i] = raw.toProduct()
	}
	return products, nil
}

// GetProduct 商品详情
func (s *SupplierService) GetProduct(ctx context.Context, productID string) (*SupplierProduct, error) {
	var envelope supplierEnvelope
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("pid", productID).
		SetResult(&envelope).
		Get("/v1/product/query")
	if err != nil {
		return nil, fmt.Errorf("供应商商品详情请求失败: %w", err)
	}
	if resp.IsError() || !envelope.Result {
		return nil, fmt.Errorf("供应商商品详情被拒绝: %s", envelope.Message)
	}

	var raw supplierProductRaw
	if err := json.Unmarshal(envelope.Data, &raw); err != nil {
		return nil, fmt.Errorf("供应商响应解析失败: %w", err)
	}
	product := raw.toProduct()
	return &product, nil
}

// CalculateFreight 运费试算
func (s *SupplierService) CalculateFreight(ctx context.Context, variantID, countryCode string, quantity int) ([]FreightQuote, error) {
	if quantity <= 0 {
		quantity = 1
	}

	var envelope supplierEnvelope
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"startCountryCode": "CN",
			"endCountryCode":   countryCode,
			"products": []map[string]interface{}{
				{"vid": variantID, "quantity": quantity},
			},
		}).
		SetResult(&envelope).
		Post("/v1/logistic/freightCalculate")
	if err != nil {
		return nil, fmt.Errorf("运费试算请求失败: %w", err)
	}
	if resp.IsError() || !envelope.Result {
		return nil, fmt.Errorf("运费试算被拒绝: %s", envelope.Message)
	}

	var quotes []FreightQuote
	if err := json.Unmarshal(envelope.Data, &quotes); err != nil {
		return nil, fmt.Errorf("运费响应解析失败: %w", err)
	}
	return quotes, nil
}

// CreateOrder 创建供应商订单，返回供应商订单号
func (s *SupplierService) CreateOrder(ctx context.Context, req *SupplierOrderRequest) (string, error) {
	var envelope supplierEnvelope
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&envelope).
		Post("/v1/shopping/order/createOrder")
	if err != nil {
		return "", fmt.Errorf("供应商下单请求失败: %w", err)
	}
	if resp.IsError() || !envelope.Result {
		return "", fmt.Errorf("供应商下单被拒绝: %s", envelope.Message)
	}

	var payload struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return "", fmt.Errorf("供应商下单响应解析失败: %w", err)
	}
	if payload.OrderID == "" {
		return "", fmt.Errorf("供应商未返回订单号")
	}
	return payload.OrderID, nil
}

// GetTracking 查询供应商订单物流
func (s *SupplierService) GetTracking(ctx context.Context, supplierOrderID string) (*SupplierTracking, error) {
	var envelope supplierEnvelope
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("orderId", supplierOrderID).
		SetResult(&envelope).
		Get("/v1/logistic/getTrackInfo")
	if err != nil {
		return nil, fmt.Errorf("物流查询请求失败: %w", err)
	}
	if resp.IsError() || !envelope.Result {
		return nil, fmt.Errorf("物流查询被拒绝: %s", envelope.Message)
	}

	var tracking SupplierTracking
	if err := json.Unmarshal(envelope.Data, &tracking); err != nil {
		return nil, fmt.Errorf("物流响应解析失败: %w", err)
	}
	return &tracking, nil
}

// ==================== 原始结构转换 ====================

type supplierProductRaw struct {
	PID          string  `json:"pid"`
	ProductName  string  `json:"productNameEn"`
	ProductSku   string  `json:"productSku"`
	SellPrice    float64 `json:"sellPrice"`
	ProductImage string  `json:"productImage"`
	Description  string  `json:"description"`
	Variants    []struct {
		VID          string  `json:"vid"`
		VariantSku   string  `json:"variantSku"`
		VariantPrice float64 `json:"variantSellPrice"`
		VariantKey   string  `json:"variantKey"`
	} `json:"variants"`
}

func (raw supplierProductRaw) toProduct() SupplierProduct {
	p := SupplierProduct{
		ProductID:   raw.PID,
		Name:        raw.ProductName,
		SKU:         raw.ProductSku,
		Price:       raw.SellPrice,
		Currency:    "USD",
		Description: raw.Description,
	}
	if raw.ProductImage != "" {
		p.Images = []string{raw.ProductImage}
	}
	for _, v := range raw.Variants {
		p.Variants = append(p.Variants, SupplierVariant{
			VariantID:  v.VID,
			SKU:        v.VariantSku,
			Price:      v.VariantPrice,
			Properties: v.VariantKey,
		})
	}
	return p
}
