package controller

import (
	"errors"

	"dropship_hub_v1_202608/internal/api/dto"
	"dropship_hub_v1_202608/internal/middleware"
	"dropship_hub_v1_202608/internal/service"

	"github.com/gin-gonic/gin"
)

// ==================== AuthController 账号接口 ====================

// AuthController 控制台账号注册/登录
// 签发的 JWT 供控制台走 Bearer 会话路径调用 /v1 接口
type AuthController struct {
	AccountService *service.AccountService
}

func NewAuthController(accountSvc *service.AccountService) *AuthController {
	return &AuthController{AccountService: accountSvc}
}

// RegisterHandler 注册账号
// POST /v1/auth/register
func (ctrl *AuthController) RegisterHandler(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		return
	}

	account, err := ctrl.AccountService.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			middleware.RespondError(c, middleware.CodeValidationError, "邮箱已注册")
			return
		}
		middleware.RespondError(c, middleware.CodeInternalError, "注册失败")
		return
	}

	middleware.RespondCreated(c, gin.H{
		"account_id": account.ID,
		"email":      account.Email,
	})
}

// LoginHandler 登录换取 JWT
// POST /v1/auth/login
func (ctrl *AuthController) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		return
	}

	result, err := ctrl.AccountService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			middleware.RespondError(c, middleware.CodeUnauthorized, "邮箱或密码错误")
		case errors.Is(err, service.ErrAccountDisabled):
			middleware.RespondError(c, middleware.CodeForbidden, "账号已停用")
		default:
			middleware.RespondError(c, middleware.CodeInternalError, "登录失败")
		}
		return
	}

	middleware.RespondOK(c, gin.H{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"account_id":    result.Account.ID,
	})
}
