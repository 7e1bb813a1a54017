package repository

import (
	"context"
	"time"

	"dropship_hub_v1_202608/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== ApiKeyRepository 密钥仓库 ====================

// ApiKeyRepository API 密钥仓库接口
type ApiKeyRepository interface {
	Create(ctx context.Context, key *model.ApiKey) error
	GetByID(ctx context.Context, id int64) (*model.ApiKey, error)
	GetByHash(ctx context.Context, hash string) (*model.ApiKey, error)
	ListByAccount(ctx context.Context, accountID int64) ([]model.ApiKey, error)
	SetActive(ctx context.Context, id int64, active bool) error
	TouchLastUsed(ctx context.Context, id int64, t time.Time) error
}

type apiKeyRepository struct {
	db *gorm.DB
}

// NewApiKeyRepository 创建密钥仓库
func NewApiKeyRepository(db *gorm.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *model.ApiKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

func (r *apiKeyRepository) GetByID(ctx context.Context, id int64) (*model.ApiKey, error) {
	var key model.ApiKey
	err := r.db.WithContext(ctx).First(&key, id).Error
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepository) GetByHash(ctx context.Context, hash string) (*model.ApiKey, error) {
	var key model.ApiKey
	err := r.db.WithContext(ctx).Where("key_hash = ?", hash).First(&key).Error
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepository) ListByAccount(ctx context.Context, accountID int64) ([]model.ApiKey, error) {
	var keys []model.ApiKey
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&keys).Error
	return keys, err
}

func (r *apiKeyRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.db.WithContext(ctx).Model(&model.ApiKey{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *apiKeyRepository) TouchLastUsed(ctx context.Context, id int64, t time.Time) error {
	return r.db.WithContext(ctx).Model(&model.ApiKey{}).
		Where("id = ?", id).
		Update("last_used_at", t).Error
}

// ==================== RateLimitRepository 限流仓库 ====================

// RateLimitRepository 固定窗口限流仓库接口
type RateLimitRepository interface {
	// IncrementWindow 原子自增窗口计数
	// 返回 false 表示该窗口已达上限，且计数未被增加
	IncrementWindow(ctx context.Context, keyID int64, windowStart time.Time, limit int) (bool, error)
	GetWindow(ctx context.Context, keyID int64, windowStart time.Time) (*model.RateLimitWindow, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type rateLimitRepository struct {
	db *gorm.DB
}

// NewRateLimitRepository 创建限流仓库
func NewRateLimitRepository(db *gorm.DB) RateLimitRepository {
	return &rateLimitRepository{db: db}
}

// IncrementWindow 插入或自增窗口计数行
// 通过单条 INSERT ... ON CONFLICT DO UPDATE count = count + 1 WHERE count < limit
// 实现并发安全：冲突行已达上限时 DO UPDATE 不命中，RowsAffected 为 0
func (r *rateLimitRepository) IncrementWindow(ctx context.Context, keyID int64, windowStart time.Time, limit int) (bool, error) {
	row := &model.RateLimitWindow{
		ApiKeyID:    keyID,
		WindowStart: windowStart,
		Count:       1,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "api_key_id"}, {Name: "window_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("count + 1"),
			"updated_at": time.Now(),
		}),
		Where: clause.Where{
			Exprs: []clause.Expression{
				clause.Lt{Column: clause.Column{Name: "count"}, Value: limit},
			},
		},
	}).Create(row)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *rateLimitRepository) GetWindow(ctx context.Context, keyID int64, windowStart time.Time) (*model.RateLimitWindow, error) {
	var window model.RateLimitWindow
	err := r.db.WithContext(ctx).
		Where("api_key_id = ? AND window_start = ?", keyID, windowStart).
		First(&window).Error
	if err != nil {
		return nil, err
	}
	return &window, nil
}

func (r *rateLimitRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("window_start < ?", cutoff).
		Delete(&model.RateLimitWindow{})
	return result.RowsAffected, result.Error
}
