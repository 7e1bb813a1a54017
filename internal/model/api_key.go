package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ==================== ApiKey API 密钥 ====================

// ApiKeyPrefix 密钥明文前缀，便于调用方识别
const ApiKeyPrefix = "dsk_"

// ApiKey 外部调用方 API 密钥
// 明文只在创建时返回一次，库中仅保存 sha256 摘要
type ApiKey struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	AccountID int64  `gorm:"index;not null"`
	Name      string `gorm:"size:128;not null"`
	KeyHash   string `gorm:"size:64;uniqueIndex;not null"`

	IsActive   bool `gorm:"default:true"`
	LastUsedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (*ApiKey) TableName() string {
	return "api_keys"
}

// GenerateApiKeySecret 生成新密钥明文
func GenerateApiKeySecret() string {
	return ApiKeyPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// HashApiKey 计算密钥摘要
// 按摘要等值查库，避免明文比对
func HashApiKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// ==================== RateLimitWindow 限流窗口 ====================

// RateLimitWindow 固定窗口限流计数
// (api_key_id, window_start) 复合唯一，每分钟每密钥一行
type RateLimitWindow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	ApiKeyID    int64     `gorm:"uniqueIndex:idx_key_window;not null"`
	WindowStart time.Time `gorm:"uniqueIndex:idx_key_window;not null"`
	Count       int       `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (*RateLimitWindow) TableName() string {
	return "rate_limit_windows"
}

// TruncateWindow 把时间截断到窗口起点
func TruncateWindow(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

// ==================== AuditLogEntry 审计日志 ====================

// AuditLogEntry 请求审计日志，只追加不修改
type AuditLogEntry struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	RequestID string `gorm:"size:64;index"`

	Method     string `gorm:"size:10"`
	Path       string `gorm:"size:255;index"`
	StatusCode int
	DurationMs int64
	CallerIP   string `gorm:"size:64"`

	ApiKeyID  int64 `gorm:"index"`
	AccountID int64 `gorm:"index"`

	CreatedAt time.Time
}

func (*AuditLogEntry) TableName() string {
	return "audit_logs"
}
