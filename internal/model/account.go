package model

import (
	"time"

	"gorm.io/gorm"
)

// ==================== Account 账号 ====================

// Account 仪表盘账号
// API 密钥、订单、刊登均归属某个账号
type Account struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	DisplayName  string `gorm:"size:128"`

	Status int `gorm:"default:1"` // 1=正常 0=停用

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (*Account) TableName() string {
	return "accounts"
}

// IsEnabled 账号是否可用
func (a *Account) IsEnabled() bool {
	return a.Status == 1
}
