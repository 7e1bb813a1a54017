package dto

import "time"

// ==================== 密钥请求 ====================

// CreateApiKeyRequest 创建密钥参数
type CreateApiKeyRequest struct {
	Name string `json:"name" binding:"required"`
}

// PatchApiKeyRequest 密钥启停参数
type PatchApiKeyRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ==================== 密钥响应 ====================

// ApiKeyVO 密钥视图（不含明文）
type ApiKeyVO struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ==================== 账号请求 ====================

// RegisterRequest 注册参数
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
}

// LoginRequest 登录参数
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ==================== 任务响应 ====================

// JobVO 任务状态视图
type JobVO struct {
	ID     int64       `json:"id"`
	Type   string      `json:"type"`
	State  string      `json:"state"`
	Output interface{} `json:"output,omitempty"`
	Error  string      `json:"error,omitempty"`
}
