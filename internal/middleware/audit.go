package middleware

import (
	"context"
	"log"
	"time"

	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ==================== 审计中间件 ====================

// auditWriteTimeout 异步落库超时
const auditWriteTimeout = 5 * time.Second

// Audit 请求审计中间件
// 每个经过路由的请求写一条审计日志，成功失败都记；
// 写入在响应之后异步进行，失败只打日志，绝不影响主响应
func Audit(auditRepo repository.AuditLogRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Set("request_id", requestID)

		c.Next()

		entry := &model.AuditLogEntry{
			RequestID:  requestID,
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			StatusCode: c.Writer.Status(),
			DurationMs: time.Since(start).Milliseconds(),
			CallerIP:   c.ClientIP(),
			ApiKeyID:   GetApiKeyID(c),
			AccountID:  GetAccountID(c),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
			defer cancel()
			if err := auditRepo.Create(ctx, entry); err != nil {
				log.Printf("[Audit] 审计日志写入失败: %v", err)
			}
		}()
	}
}

// ==================== 恢复中间件 ====================

// Recovery 异常恢复中间件
// handler panic 统一转为 INTERNAL_ERROR 响应，不向调用方泄漏内部细节
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Recovery] %s %s panic: %v", c.Request.Method, c.Request.URL.Path, r)
				AbortError(c, CodeInternalError, "服务内部错误")
			}
		}()
		c.Next()
	}
}
