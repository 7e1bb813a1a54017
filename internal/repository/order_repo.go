package repository

import (
	"context"
	"time"

	"dropship_hub_v1_202608/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== 过滤条件 ====================

// OrderFilter 订单过滤条件
type OrderFilter struct {
	AccountID int64
	Status    string
	Keyword   string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// ==================== OrderRepository 订单仓库 ====================

// OrderRepository 订单仓库接口
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByIDForAccount(ctx context.Context, id, accountID int64) (*model.Order, error)
	GetByMarketOrderID(ctx context.Context, accountID int64, marketOrderID string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// UpsertFromMarket 按 (account_id, market_order_id) 插入或更新（同步导入）
	UpsertFromMarket(ctx context.Context, order *model.Order) error

	// MarkFulfilled 条件写入供应商单号，已有单号则不覆盖
	// 返回 false 表示该订单已被履约
	MarkFulfilled(ctx context.Context, id int64, supplierOrderID string) (bool, error)

	SetTracking(ctx context.Context, id int64, trackingNumber, carrierName string) error

	// MarkTrackingPushed 条件置回传标记，已置位则不重复
	MarkTrackingPushed(ctx context.Context, id int64) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByIDForAccount(ctx context.Context, id, accountID int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND account_id = ?", id, accountID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByMarketOrderID(ctx context.Context, accountID int64, marketOrderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND market_order_id = ?", accountID, marketOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Order{})

	// 应用过滤条件
	if filter.AccountID > 0 {
		db = db.Where("account_id = ?", filter.AccountID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		db = db.Where("created_at >= ?", filter.StartDate)
	}
	if filter.EndDate != nil {
		db = db.Where("created_at <= ?", filter.EndDate)
	}
	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		db = db.Where("buyer_name LIKE ? OR buyer_username LIKE ? OR market_order_id LIKE ?",
			keyword, keyword, keyword)
	}

	// 计算总数
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	err := db.
		Preload("Items").
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&orders).Error

	return orders, total, err
}

func (r *orderRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Updates(fields).Error
}

func (r *orderRepository) UpsertFromMarket(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "market_order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"market_status", "buyer_username", "buyer_name",
			"shipping_address", "subtotal_amount", "shipping_amount",
			"grand_total_amount", "currency", "market_raw_data",
			"market_synced_at", "updated_at",
		}),
	}).Create(order).Error
}

func (r *orderRepository) MarkFulfilled(ctx context.Context, id int64, supplierOrderID string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND (supplier_order_id = '' OR supplier_order_id IS NULL)", id).
		Updates(map[string]interface{}{
			"supplier_order_id": supplierOrderID,
			"status":            model.OrderStatusFulfilled,
			"fulfilled_at":      now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *orderRepository) SetTracking(ctx context.Context, id int64, trackingNumber, carrierName string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tracking_number": trackingNumber,
			"carrier_name":    carrierName,
			"status":          model.OrderStatusShipped,
		}).Error
}

func (r *orderRepository) MarkTrackingPushed(ctx context.Context, id int64) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND tracking_pushed = ?", id, false).
		Updates(map[string]interface{}{
			"tracking_pushed":    true,
			"tracking_pushed_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ==================== OrderItemRepository 订单项仓库 ====================

// OrderItemRepository 订单项仓库接口
type OrderItemRepository interface {
	CreateBatch(ctx context.Context, items []model.OrderItem) error
	GetByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	UpsertFromMarket(ctx context.Context, item *model.OrderItem) error
}

type orderItemRepository struct {
	db *gorm.DB
}

// NewOrderItemRepository 创建订单项仓库
func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) CreateBatch(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(items, 100).Error
}

func (r *orderItemRepository) GetByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&items).Error
	return items, err
}

func (r *orderItemRepository) UpsertFromMarket(ctx context.Context, item *model.OrderItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "market_line_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sku", "title", "quantity", "price_amount", "currency", "updated_at",
		}),
	}).Create(item).Error
}
