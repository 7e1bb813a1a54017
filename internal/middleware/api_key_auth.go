package middleware

import (
	"log"
	"strings"
	"time"

	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/repository"

	"github.com/gin-gonic/gin"
)

// ==================== 认证配置 ====================

// 限流参数：每密钥每 60 秒 60 次
const (
	RateLimitPerWindow = 60
)

// Context Keys
const (
	ContextKeyAccountID = "account_id"
	ContextKeyApiKeyID  = "api_key_id"
)

// ==================== 凭证提取 ====================

// extractCredential 从请求头提取 API 密钥明文
// 支持 X-API-Key 与 Authorization: Bearer 两种约定
// Bearer 值含 "." 视为结构化会话 token（JWT），不按 API 密钥处理
func extractCredential(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	if strings.Contains(parts[1], ".") {
		return ""
	}
	return parts[1]
}

// extractSessionToken 从 Authorization 提取 JWT 会话 token
func extractSessionToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	if !strings.Contains(parts[1], ".") {
		return ""
	}
	return parts[1]
}

// ==================== Auth 中间件 ====================

// Auth 统一认证中间件
// JWT 会话与 API 密钥共用 Authorization 头，按值形态分流；
// API 密钥路径会产生限流计数与 last_used_at 副作用
func Auth(keyRepo repository.ApiKeyRepository, limitRepo repository.RateLimitRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. JWT 会话
		if token := extractSessionToken(c); token != "" {
			claims, err := ParseToken(token)
			if err != nil || claims.Subject != "access" {
				AbortError(c, CodeUnauthorized, "会话 token 无效或已过期")
				return
			}
			c.Set(ContextKeyAccountID, claims.AccountID)
			c.Next()
			return
		}

		// 2. API 密钥
		credential := extractCredential(c)
		if credential == "" {
			AbortError(c, CodeUnauthorized, "未提供认证信息")
			return
		}

		ctx := c.Request.Context()
		key, err := keyRepo.GetByHash(ctx, model.HashApiKey(credential))
		if err != nil {
			AbortError(c, CodeUnauthorized, "API 密钥无效")
			return
		}
		if !key.IsActive {
			AbortError(c, CodeForbidden, "API 密钥已停用")
			return
		}

		// 限流：原子自增窗口计数，达到上限直接拒绝且不增加计数
		now := time.Now()
		allowed, err := limitRepo.IncrementWindow(ctx, key.ID, model.TruncateWindow(now), RateLimitPerWindow)
		if err != nil {
			AbortError(c, CodeInternalError, "限流检查失败")
			return
		}
		if !allowed {
			AbortError(c, CodeRateLimited, "请求过于频繁，请稍后重试")
			return
		}

		// last_used_at 每次认证都推进，写失败不影响请求
		if err := keyRepo.TouchLastUsed(ctx, key.ID, now); err != nil {
			log.Printf("[Auth] 更新 last_used_at 失败: %v", err)
		}

		c.Set(ContextKeyAccountID, key.AccountID)
		c.Set(ContextKeyApiKeyID, key.ID)
		c.Next()
	}
}

// ==================== 辅助函数 ====================

// GetAccountID 从 Context 获取账号 ID
func GetAccountID(c *gin.Context) int64 {
	if id, exists := c.Get(ContextKeyAccountID); exists {
		return id.(int64)
	}
	return 0
}

// GetApiKeyID 从 Context 获取密钥 ID（JWT 会话时为 0）
func GetApiKeyID(c *gin.Context) int64 {
	if id, exists := c.Get(ContextKeyApiKeyID); exists {
		return id.(int64)
	}
	return 0
}
