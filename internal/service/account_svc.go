package service

import (
	"context"
	"errors"

	"dropship_hub_v1_202608/internal/middleware"
	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ==================== 错误定义 ====================

type AccountError string

func (e AccountError) Error() string { return string(e) }

const (
	ErrEmailTaken         AccountError = "email already registered"
	ErrInvalidCredentials AccountError = "invalid email or password"
	ErrAccountDisabled    AccountError = "account disabled"
)

// ==================== 结果结构 ====================

// LoginResult 登录结果
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Account      *model.Account
}

// ==================== AccountService 账号服务 ====================

// AccountService 仪表盘账号注册与登录
type AccountService struct {
	accountRepo repository.AccountRepository
}

// NewAccountService 创建账号服务
func NewAccountService(accountRepo repository.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// Register 注册账号，密码使用 bcrypt 存储
func (s *AccountService) Register(ctx context.Context, email, password, displayName string) (*model.Account, error) {
	_, err := s.accountRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Status:       1,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Login 校验密码并签发 JWT 对
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !account.IsEnabled() {
		return nil, ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(account.ID, account.Email)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      account,
	}, nil
}
