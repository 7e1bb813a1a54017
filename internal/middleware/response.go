package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ==================== 错误码 ====================

// ErrorCode 统一错误码
const (
	CodeUnauthorized    = "UNAUTHORIZED"     // 无凭证或凭证无效
	CodeForbidden       = "FORBIDDEN"        // 凭证有效但已停用
	CodeNotFound        = "NOT_FOUND"        // 路由或实体不存在
	CodeValidationError = "VALIDATION_ERROR" // 参数错误
	CodeRateLimited     = "RATE_LIMITED"     // 触发限流
	CodeInternalError   = "INTERNAL_ERROR"   // 未预期异常
)

// codeToStatus 错误码对应的 HTTP 状态码
var codeToStatus = map[string]int{
	CodeUnauthorized:    http.StatusUnauthorized,
	CodeForbidden:       http.StatusForbidden,
	CodeNotFound:        http.StatusNotFound,
	CodeValidationError: http.StatusBadRequest,
	CodeRateLimited:     http.StatusTooManyRequests,
	CodeInternalError:   http.StatusInternalServerError,
}

// ==================== 响应辅助 ====================

// RespondOK 成功响应
// 所有响应统一携带 ok 布尔，便于调用方不依赖 HTTP 状态码判断
func RespondOK(c *gin.Context, data gin.H) {
	body := gin.H{"ok": true}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// RespondCreated 创建成功响应
func RespondCreated(c *gin.Context, data gin.H) {
	body := gin.H{"ok": true}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(http.StatusCreated, body)
}

// RespondError 失败响应
func RespondError(c *gin.Context, code, message string) {
	status, ok := codeToStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{
		"ok":    false,
		"error": message,
		"code":  code,
	})
}

// AbortError 失败响应并中断后续 handler
func AbortError(c *gin.Context, code, message string) {
	RespondError(c, code, message)
	c.Abort()
}
