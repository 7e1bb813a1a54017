package service

import (
	"context"
	"errors"

	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/repository"

	"gorm.io/gorm"
)

// ==================== 错误定义 ====================

type ApiKeyError string

func (e ApiKeyError) Error() string { return string(e) }

const (
	ErrApiKeyNotFound ApiKeyError = "api key not found"
)

// ==================== 结果结构 ====================

// CreatedApiKey 创建结果，Secret 仅在此处出现一次
type CreatedApiKey struct {
	Key    *model.ApiKey
	Secret string
}

// ==================== ApiKeyService 密钥服务 ====================

// ApiKeyService API 密钥管理服务
type ApiKeyService struct {
	keyRepo repository.ApiKeyRepository
}

// NewApiKeyService 创建密钥服务
func NewApiKeyService(keyRepo repository.ApiKeyRepository) *ApiKeyService {
	return &ApiKeyService{keyRepo: keyRepo}
}

// Create 创建新密钥
// 明文只通过返回值暴露一次，库中仅存摘要
func (s *ApiKeyService) Create(ctx context.Context, accountID int64, name string) (*CreatedApiKey, error) {
	secret := model.GenerateApiKeySecret()

	key := &model.ApiKey{
		AccountID: accountID,
		Name:      name,
		KeyHash:   model.HashApiKey(secret),
		IsActive:  true,
	}
	if err := s.keyRepo.Create(ctx, key); err != nil {
		return nil, err
	}

	return &CreatedApiKey{Key: key, Secret: secret}, nil
}

// List 账号下全部密钥（不含明文）
func (s *ApiKeyService) List(ctx context.Context, accountID int64) ([]model.ApiKey, error) {
	return s.keyRepo.ListByAccount(ctx, accountID)
}

// SetActive 启用/停用密钥，密钥只停用不删除
func (s *ApiKeyService) SetActive(ctx context.Context, accountID, keyID int64, active bool) (*model.ApiKey, error) {
	key, err := s.keyRepo.GetByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApiKeyNotFound
		}
		return nil, err
	}
	if key.AccountID != accountID {
		return nil, ErrApiKeyNotFound
	}

	if err := s.keyRepo.SetActive(ctx, keyID, active); err != nil {
		return nil, err
	}
	key.IsActive = active
	return key, nil
}
