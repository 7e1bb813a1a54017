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

	"gorm.io/gorm"
)

// ==================== 错误定义 ====================

type ListingError string

func (e ListingError) Error() string { return string(e) }

const (
	ErrListingNotFound  ListingError = "listing not found"
	ErrListingNoSKU     ListingError = "listing has no sku"
	ErrMarginTooLow     ListingError = "price below minimum margin"
	ErrSourceUnresolved ListingError = "source product could not be resolved"
)

// ==================== 请求/结果结构 ====================

// PrepareListingRequest 创建草稿请求
type PrepareListingRequest struct {
	SKU           string
	Title         string
	Description   string
	ImageURLs     []string
	Source        string // amazon / cj
	SourceItemID  string
	SourceItemURL string
	PriceCent     int64   // 0 表示按毛利率自动定价
	Quantity      int
	MarginPercent float64 // 自动定价时的目标毛利率
}

// PublishResult 发布结果
type PublishResult struct {
	OfferID         string `json:"offer_id"`
	MarketListingID string `json:"market_listing_id"`
	Updated         bool   `json:"updated"` // true 表示走了更新而非新建
}

// ==================== ListingService 刊登服务 ====================

// ListingService 商品草稿与发布服务
type ListingService struct {
	listingRepo repository.ListingRepository
	mappingRepo repository.SkuMappingRepository
	supplier    SupplierClient
	market      MarketClient
}

// NewListingService 创建刊登服务
func NewListingService(
	listingRepo repository.ListingRepository,
	mappingRepo repository.SkuMappingRepository,
	supplier SupplierClient,
	market MarketClient,
) *ListingService {
	return &ListingService{
		listingRepo: listingRepo,
		mappingRepo: mappingRepo,
		supplier:    supplier,
		market:      market,
	}
}

// ==================== 草稿准备 ====================

// Prepare 创建刊登草稿
// CJ 货源时拉取供应商详情补全信息；价格为 0 时按毛利率自动定价
func (s *ListingService) Prepare(ctx context.Context, accountID int64, req *PrepareListingRequest) (*model.Listing, error) {
	if req.SKU == "" {
		return nil, ErrListingNoSKU
	}

	listing := &model.Listing{
		AccountID:     accountID,
		SKU:           req.SKU,
		Title:         req.Title,
		Description:   req.Description,
		ImageURLs:     req.ImageURLs,
		Source:        req.Source,
		SourceItemID:  req.SourceItemID,
		SourceItemURL: req.SourceItemURL,
		PriceAmount:   req.PriceCent,
		Quantity:      req.Quantity,
		Status:        model.ListingStatusDraft,
	}
	if listing.Quantity <= 0 {
		listing.Quantity = 1
	}

	// CJ 货源：从供应商拉取详情补全
	if req.Source == model.ListingSourceCJ && req.SourceItemID != "" {
		product, err := s.supplier.GetProduct(ctx, req.SourceItemID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnresolved, err)
		}
		if listing.Title == "" {
			listing.Title = product.Name
		}
		if listing.Description == "" {
			listing.Description = product.Description
		}
		if len(listing.ImageURLs) == 0 {
			listing.ImageURLs = product.Images
		}
		listing.SourceCostCent = int64(product.Price*100 + 0.5)
		if raw, err := json.Marshal(product); err == nil {
			listing.SourceRawData = raw
		}
	}

	// 显式定价须满足毛利下限（成本已知时）
	if listing.PriceAmount > 0 && listing.SourceCostCent > 0 &&
		!MeetsMinMargin(listing.PriceAmount, listing.SourceCostCent, 0, req.MarginPercent) {
		return nil, ErrMarginTooLow
	}

	// 自动定价
	if listing.PriceAmount <= 0 && listing.SourceCostCent > 0 {
		margin := req.MarginPercent
		if margin <= 0 {
			margin = 30
		}
		listing.PriceAmount = SuggestPriceCents(listing.SourceCostCent, 0, margin)
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// ==================== 发布 ====================

// Publish 发布刊登到市场
// 幂等：SKU 已有 offer 时更新价格与库存，不创建重复 offer
func (s *ListingService) Publish(ctx context.Context, accountID, listingID int64) (*PublishResult, error) {
	listing, err := s.listingRepo.GetByIDForAccount(ctx, listingID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	// 发布前按 SKU 映射的毛利下限复核定价
	if listing.SourceCostCent > 0 {
		mapping, err := s.mappingRepo.GetBySKU(ctx, accountID, listing.SKU)
		switch {
		case err == nil:
			if mapping.IsActive && mapping.MinMarginPercent > 0 &&
				!MeetsMinMargin(listing.PriceAmount, listing.SourceCostCent, 0, mapping.MinMarginPercent) {
				return nil, ErrMarginTooLow
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	offerReq := &OfferRequest{
		SKU:         listing.SKU,
		Title:       listing.Title,
		Description: listing.Description,
		PriceCent:   listing.PriceAmount,
		Quantity:    listing.Quantity,
		Currency:    listing.Currency,
		ImageURLs:   listing.ImageURLs,
	}

	offerID := listing.OfferID

	// 本地没有 offer 记录时再查一次市场，防止库外创建过
	if offerID == "" {
		offerID, err = s.market.GetOfferBySKU(ctx, listing.SKU)
		if err != nil {
			return nil, fmt.Errorf("查询既有 offer 失败: %w", err)
		}
	}

	result := &PublishResult{}

	if offerID != "" {
		// 已存在：更新价格与库存
		if err := s.market.UpdateOffer(ctx, offerID, offerReq); err != nil {
			s.recordPublishError(ctx, listingID, err)
			return nil, fmt.Errorf("更新 offer 失败: %w", err)
		}
		result.OfferID = offerID
		result.Updated = true
	} else {
		// 不存在：创建并发布
		offerID, err = s.market.CreateOffer(ctx, offerReq)
		if err != nil {
			s.recordPublishError(ctx, listingID, err)
			return nil, fmt.Errorf("创建 offer 失败: %w", err)
		}
		result.OfferID = offerID
	}

	marketListingID, err := s.market.PublishOffer(ctx, offerID)
	if err != nil {
		s.recordPublishError(ctx, listingID, err)
		return nil, fmt.Errorf("发布 offer 失败: %w", err)
	}
	result.MarketListingID = marketListingID

	now := time.Now()
	fields := map[string]interface{}{
		"offer_id":      offerID,
		"status":        model.ListingStatusPublished,
		"publish_error": "",
		"published_at":  now,
	}
	if marketListingID != "" {
		fields["market_listing_id"] = marketListingID
	}
	if err := s.listingRepo.UpdateFields(ctx, listingID, fields); err != nil {
		return nil, err
	}

	log.Printf("[ListingService] 刊登 %d 发布完成: offer=%s updated=%v", listingID, offerID, result.Updated)
	return result, nil
}

// recordPublishError 记录发布失败原因，失败本身不掩盖原错误
func (s *ListingService) recordPublishError(ctx context.Context, listingID int64, cause error) {
	err := s.listingRepo.UpdateFields(ctx, listingID, map[string]interface{}{
		"status":        model.ListingStatusError,
		"publish_error": cause.Error(),
	})
	if err != nil {
		log.Printf("[ListingService] 记录发布错误失败: %v", err)
	}
}

// ==================== 查询 ====================

// List 刊登列表
func (s *ListingService) List(ctx context.Context, filter repository.ListingFilter) ([]model.Listing, int64, error) {
	return s.listingRepo.List(ctx, filter)
}

// GetByID 刊登详情
func (s *ListingService) GetByID(ctx context.Context, accountID, listingID int64) (*model.Listing, error) {
	listing, err := s.listingRepo.GetByIDForAccount(ctx, listingID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}
