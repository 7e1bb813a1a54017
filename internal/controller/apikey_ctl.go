package controller

import (
	"errors"
	"strconv"

	"dropship_hub_v1_202608/internal/api/dto"
	"dropship_hub_v1_202608/internal/middleware"
	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/service"

	"github.com/gin-gonic/gin"
)

// ==================== ApiKeyController 密钥接口 ====================

type ApiKeyController struct {
	ApiKeyService *service.ApiKeyService
}

func NewApiKeyController(keySvc *service.ApiKeyService) *ApiKeyController {
	return &ApiKeyController{ApiKeyService: keySvc}
}

// CreateHandler 创建密钥
// POST /v1/api-keys  明文 secret 只在本次响应返回一次
func (ctrl *ApiKeyController) CreateHandler(c *gin.Context) {
	var req dto.CreateApiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		return
	}

	created, err := ctrl.ApiKeyService.Create(c.Request.Context(), middleware.GetAccountID(c), req.Name)
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "创建密钥失败")
		return
	}

	middleware.RespondCreated(c, gin.H{
		"key":    toApiKeyVO(created.Key),
		"secret": created.Secret, // 仅此一次，入库的只有哈希
	})
}

// ListHandler 密钥列表，不含明文
// GET /v1/api-keys
func (ctrl *ApiKeyController) ListHandler(c *gin.Context) {
	keys, err := ctrl.ApiKeyService.List(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		middleware.RespondError(c, middleware.CodeInternalError, "查询密钥失败")
		return
	}

	vos := make([]dto.ApiKeyVO, 0, len(keys))
	for i := range keys {
		vos = append(vos, toApiKeyVO(&keys[i]))
	}
	middleware.RespondOK(c, gin.H{"keys": vos})
}

// PatchHandler 启用/停用密钥
// PATCH /v1/api-keys/:id
func (ctrl *ApiKeyController) PatchHandler(c *gin.Context) {
	keyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, "密钥 ID 非法")
		return
	}

	var req dto.PatchApiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, err.Error())
		return
	}

	key, err := ctrl.ApiKeyService.SetActive(c.Request.Context(), middleware.GetAccountID(c), keyID, *req.IsActive)
	if err != nil {
		if errors.Is(err, service.ErrApiKeyNotFound) {
			middleware.RespondError(c, middleware.CodeNotFound, "密钥不存在")
			return
		}
		middleware.RespondError(c, middleware.CodeInternalError, "更新密钥失败")
		return
	}
	middleware.RespondOK(c, gin.H{"key": toApiKeyVO(key)})
}

func toApiKeyVO(key *model.ApiKey) dto.ApiKeyVO {
	return dto.ApiKeyVO{
		ID:         key.ID,
		Name:       key.Name,
		IsActive:   key.IsActive,
		LastUsedAt: key.LastUsedAt,
		CreatedAt:  key.CreatedAt,
	}
}
