package repository

import (
	"context"

	"dropship_hub_v1_202608/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== SkuMappingRepository SKU 映射仓库 ====================

// SkuMappingRepository SKU 映射仓库接口
type SkuMappingRepository interface {
	// Upsert 按 (account_id, sku) 插入或更新
	Upsert(ctx context.Context, mapping *model.SkuMapping) error
	GetByID(ctx context.Context, id int64) (*model.SkuMapping, error)
	GetByIDForAccount(ctx context.Context, id, accountID int64) (*model.SkuMapping, error)
	GetBySKU(ctx context.Context, accountID int64, sku string) (*model.SkuMapping, error)
	ListByAccount(ctx context.Context, accountID int64) ([]model.SkuMapping, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
}

type skuMappingRepository struct {
	db *gorm.DB
}

// NewSkuMappingRepository 创建 SKU 映射仓库
func NewSkuMappingRepository(db *gorm.DB) SkuMappingRepository {
	return &skuMappingRepository{db: db}
}

func (r *skuMappingRepository) Upsert(ctx context.Context, mapping *model.SkuMapping) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"supplier_variant", "default_quantity", "min_margin_percent",
			"is_active", "updated_at",
		}),
	}).Create(mapping).Error
}

func (r *skuMappingRepository) GetByID(ctx context.Context, id int64) (*model.SkuMapping, error) {
	var mapping model.SkuMapping
	err := r.db.WithContext(ctx).First(&mapping, id).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *skuMappingRepository) GetByIDForAccount(ctx context.Context, id, accountID int64) (*model.SkuMapping, error) {
	var mapping model.SkuMapping
	err := r.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *skuMappingRepository) GetBySKU(ctx context.Context, accountID int64, sku string) (*model.SkuMapping, error) {
	var mapping model.SkuMapping
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND sku = ?", accountID, sku).
		First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *skuMappingRepository) ListByAccount(ctx context.Context, accountID int64) ([]model.SkuMapping, error) {
	var mappings []model.SkuMapping
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("sku ASC").
		Find(&mappings).Error
	return mappings, err
}

func (r *skuMappingRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.SkuMapping{}).Where("id = ?", id).Updates(fields).Error
}
