package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 配置 ====================

// MarketConfig 市场（eBay 风格）API 配置
type MarketConfig struct {
	BaseURL     string // 默认 https://api.ebay.com
	AccessToken string
	Timeout     time.Duration
}

// ==================== 统一数据结构 ====================

// MarketOrder 市场订单（拉单结果）
type MarketOrder struct {
	OrderID     string            `json:"order_id"`
	Status      string            `json:"status"`
	Buyer       string            `json:"buyer"`
	BuyerName   string            `json:"buyer_name"`
	Address     map[string]string `json:"address"`
	Subtotal    int64             `json:"subtotal"`    // 分
	Shipping    int64             `json:"shipping"`    // 分
	GrandTotal  int64             `json:"grand_total"` // 分
	Currency    string            `json:"currency"`
	CreatedAt   time.Time         `json:"created_at"`
	LineItems   []MarketLineItem  `json:"line_items"`
	RawResponse []byte            `json:"-"`
}

// MarketLineItem 市场订单行项目
type MarketLineItem struct {
	LineItemID string `json:"line_item_id"`
	SKU        string `json:"sku"`
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	Price      int64  `json:"price"` // 分
	Currency   string `json:"currency"`
}

// OfferRequest 市场 offer 创建/更新参数
type OfferRequest struct {
	SKU         string
	Title       string
	Description string
	PriceCent   int64
	Quantity    int
	Currency    string
	ImageURLs   []string
}

// ==================== 接口定义 ====================

// MarketClient 市场 API 客户端接口
type MarketClient interface {
	FetchOrders(ctx context.Context, since time.Time) ([]MarketOrder, error)
	GetOfferBySKU(ctx context.Context, sku string) (string, error)
	CreateOffer(ctx context.Context, req *OfferRequest) (string, error)
	UpdateOffer(ctx context.Context, offerID string, req *OfferRequest) error
	PublishOffer(ctx context.Context, offerID string) (string, error)
	PushTracking(ctx context.Context, marketOrderID, trackingNumber, carrierName string) error
}

// ==================== 服务实现 ====================

// MarketService 基于 resty 的市场客户端
type MarketService struct {
	config *MarketConfig
	client *resty.Client
}

// NewMarketService 创建市场客户端
func NewMarketService(cfg *MarketConfig) *MarketService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.ebay.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json")

	return &MarketService{config: cfg, client: client}
}

// FetchOrders 拉取指定时间之后的订单
func (s *MarketService) FetchOrders(ctx context.Context, since time.Time) ([]MarketOrder, error) {
	var result struct {
		Orders []struct {
			OrderID            string `json:"orderId"`
			OrderFulfillStatus string `json:"orderFulfillmentStatus"`
			CreationDate       string `json:"creationDate"`
			Buyer              struct {
				Username string `json:"username"`
			} `json:"buyer"`
			PricingSummary struct {
				PriceSubtotal marketAmount `json:"priceSubtotal"`
				DeliveryCost  marketAmount `json:"deliveryCost"`
				Total         marketAmount `json:"total"`
			} `json:"pricingSummary"`
			FulfillmentStartInstructions []struct {
				ShippingStep struct {
					ShipTo struct {
						FullName       string `json:"fullName"`
						ContactAddress struct {
							AddressLine1 string `json:"addressLine1"`
							AddressLine2 string `json:"addressLine2"`
							City         string `json:"city"`
							StateOrProv  string `json:"stateOrProvince"`
							PostalCode   string `json:"postalCode"`
							CountryCode  string `json:"countryCode"`
						} `json:"contactAddress"`
					} `json:"shipTo"`
				} `json:"shippingStep"`
			} `json:"fulfillmentStartInstructions"`
			LineItems []struct {
				LineItemID string       `json:"lineItemId"`
				SKU        string       `json:"sku"`
				Title      string       `json:"title"`
				Quantity   int          `json:"quantity"`
				Total      marketAmount `json:"total"`
			} `json:"lineItems"`
		} `json:"orders"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("filter", fmt.Sprintf("creationdate:[%s..]", since.UTC().Format(time.RFC3339))).
		SetResult(&result).
		Get("/sell/fulfillment/v1/order")
	if err != nil {
		return nil, fmt.Errorf("市场拉单请求失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("市场拉单被拒绝: HTTP %d", resp.StatusCode())
	}

	orders := make([]MarketOrder, 0, len(result.Orders))
	for _, raw := range result.Orders {
		order := MarketOrder{
			OrderID:    raw.OrderID,
			Status:     raw.OrderFulfillStatus,
			Buyer:      raw.Buyer.Username,
			Subtotal:   raw.PricingSummary.PriceSubtotal.Cents(),
			Shipping:   raw.PricingSummary.DeliveryCost.Cents(),
			GrandTotal: raw.PricingSummary.Total.Cents(),
			Currency:   raw.PricingSummary.Total.Currency,
		}
		if t, err := time.Parse(time.RFC3339, raw.CreationDate); err == nil {
			order.CreatedAt = t
		}
		if len(raw.FulfillmentStartInstructions) > 0 {
			shipTo := raw.FulfillmentStartInstructions[0].ShippingStep.ShipTo
			order.BuyerName = shipTo.FullName
			order.Address = map[string]string{
				"name":        shipTo.FullName,
				"first_line":  shipTo.ContactAddress.AddressLine1,
				"second_line": shipTo.ContactAddress.AddressLine2,
				"city":        shipTo.ContactAddress.City,
				"state":       shipTo.ContactAddress.StateOrProv,
				"zip":         shipTo.ContactAddress.PostalCode,
				"country_iso": shipTo.ContactAddress.CountryCode,
			}
		}
		for _, item := range raw.LineItems {
			order.LineItems = append(order.LineItems, MarketLineItem{
				LineItemID: item.LineItemID,
				SKU:        item.SKU,
				Title:      item.Title,
				Quantity:   item.Quantity,
				Price:      item.Total.Cents(),
				Currency:   item.Total.Currency,
			})
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// GetOfferBySKU 查询 SKU 对应的 offer，不存在返回空串
func (s *MarketService) GetOfferBySKU(ctx context.Context, sku string) (string, error) {
	var result struct {
		Offers []struct {
			OfferID string `json:"offerId"`
		} `json:"offers"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("sku", sku).
		SetResult(&result).
		Get("/sell/inventory/v1/offer")
	if err != nil {
		return "", fmt.Errorf("offer 查询请求失败: %w", err)
	}
	// eBay 对无 offer 的 SKU 返回 404，视为不存在而非错误
	if resp.StatusCode() == 404 {
		return "", nil
	}
	if resp.IsError() {
		return "", fmt.Errorf("offer 查询被拒绝: HTTP %d", resp.StatusCode())
	}
	if len(result.Offers) == 0 {
		return "", nil
	}
	return result.Offers[0].OfferID, nil
}

// CreateOffer 创建 offer
func (s *MarketService) CreateOffer(ctx context.Context, req *OfferRequest) (string, error) {
	var result struct {
		OfferID string `json:"offerId"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(s.offerBody(req)).
		SetResult(&result).
		Post("/sell/inventory/v1/offer")
	if err != nil {
		return "", fmt.Errorf("offer 创建请求失败: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("offer 创建被拒绝: HTTP %d %s", resp.StatusCode(), resp.String())
	}
	if result.OfferID == "" {
		return "", fmt.Errorf("市场未返回 offerId")
	}
	return result.OfferID, nil
}

// UpdateOffer 更新已有 offer 的价格与库存
func (s *MarketService) UpdateOffer(ctx context.Context, offerID string, req *OfferRequest) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(s.offerBody(req)).
		Put("/sell/inventory/v1/offer/" + offerID)
	if err != nil {
		return fmt.Errorf("offer 更新请求失败: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("offer 更新被拒绝: HTTP %d %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// PublishOffer 发布 offer，返回市场 listing id
func (s *MarketService) PublishOffer(ctx context.Context, offerID string) (string, error) {
	var result struct {
		ListingID string `json:"listingId"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&result).
		Post("/sell/inventory/v1/offer/" + offerID + "/publish")
	if err != nil {
		return "", fmt.Errorf("offer 发布请求失败: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("offer 发布被拒绝: HTTP %d %s", resp.StatusCode(), resp.String())
	}
	return result.ListingID, nil
}

// PushTracking 回传物流单号到市场
func (s *MarketService) PushTracking(ctx context.Context, marketOrderID, trackingNumber, carrierName string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"lineItems":           []map[string]string{},
			"shippedDate":         time.Now().UTC().Format(time.RFC3339),
			"shippingCarrierCode": carrierName,
			"trackingNumber":      trackingNumber,
		}).
		Post("/sell/fulfillment/v1/order/" + marketOrderID + "/shipping_fulfillment")
	if err != nil {
		return fmt.Errorf("物流回传请求失败: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("物流回传被拒绝: HTTP %d %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// offerBody 构造 offer 请求体
func (s *MarketService) offerBody(req *OfferRequest) map[string]interface{} {
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	return map[string]interface{}{
		"sku":               req.SKU,
		"marketplaceId":     "EBAY_US",
		"format":            "FIXED_PRICE",
		"availableQuantity": req.Quantity,
		"pricingSummary": map[string]interface{}{
			"price": map[string]string{
				"value":    fmt.Sprintf("%.2f", float64(req.PriceCent)/100),
				"currency": currency,
			},
		},
		"listingDescription": req.Description,
	}
}

// ==================== 金额解析 ====================

// marketAmount 市场金额（字符串数值 + 币种）
type marketAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Cents 转为分
func (a marketAmount) Cents() int64 {
	f, err := strconv.ParseFloat(a.Value, 64)
	if err != nil {
		return 0
	}
	return int64(f*100 + 0.5)
}
