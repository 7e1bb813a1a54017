package repository

import (
	"context"
	"time"

	"dropship_hub_v1_202608/internal/model"

	"gorm.io/gorm"
)

// ==================== AuditLogRepository 审计日志仓库 ====================

// AuditLogRepository 审计日志仓库接口，只追加
type AuditLogRepository interface {
	Create(ctx context.Context, entry *model.AuditLogEntry) error
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]model.AuditLogEntry, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓库
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *model.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]model.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []model.AuditLogEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *auditLogRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AuditLogEntry{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}
