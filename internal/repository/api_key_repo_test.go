package repository

import (
	"context"
	"testing"
	"time"

	"dropship_hub_v1_202608/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestApiKeyRepository_HashLookup(t *testing.T) {
	repo := NewApiKeyRepository(setupDB(t))
	ctx := context.Background()

	secret := model.GenerateApiKeySecret()
	key := &model.ApiKey{
		AccountID: 1,
		Name:      "ci",
		KeyHash:   model.HashApiKey(secret),
		IsActive:  true,
	}
	assert.NoError(t, repo.Create(ctx, key))

	found, err := repo.GetByHash(ctx, model.HashApiKey(secret))
	assert.NoError(t, err)
	assert.Equal(t, key.ID, found.ID)

	// 错误明文查不到
	_, err = repo.GetByHash(ctx, model.HashApiKey(secret+"x"))
	assert.Error(t, err)
}

func TestApiKeyRepository_SetActiveAndTouch(t *testing.T) {
	repo := NewApiKeyRepository(setupDB(t))
	ctx := context.Background()

	key := &model.ApiKey{AccountID: 1, Name: "ops", KeyHash: model.HashApiKey("k1"), IsActive: true}
	assert.NoError(t, repo.Create(ctx, key))

	assert.NoError(t, repo.SetActive(ctx, key.ID, false))
	saved, _ := repo.GetByID(ctx, key.ID)
	assert.False(t, saved.IsActive)

	now := time.Now()
	assert.NoError(t, repo.TouchLastUsed(ctx, key.ID, now))
	saved, _ = repo.GetByID(ctx, key.ID)
	assert.NotNil(t, saved.LastUsedAt)
}

func TestRateLimitRepository_IncrementWindow(t *testing.T) {
	repo := NewRateLimitRepository(setupDB(t))
	ctx := context.Background()
	window := model.TruncateWindow(time.Now())

	const limit = 5

	// 前 limit 次放行
	for i := 0; i < limit; i++ {
		allowed, err := repo.IncrementWindow(ctx, 1, window, limit)
		assert.NoError(t, err)
		assert.True(t, allowed, "第 %d 次应放行", i+1)
	}

	// 第 limit+1 次拒绝，且计数不再增长
	allowed, err := repo.IncrementWindow(ctx, 1, window, limit)
	assert.NoError(t, err)
	assert.False(t, allowed)

	row, err := repo.GetWindow(ctx, 1, window)
	assert.NoError(t, err)
	assert.Equal(t, limit, row.Count)
}

func TestRateLimitRepository_WindowIsolation(t *testing.T) {
	repo := NewRateLimitRepository(setupDB(t))
	ctx := context.Background()
	window := model.TruncateWindow(time.Now())

	// 打满密钥 1 的窗口
	for i := 0; i < 3; i++ {
		allowed, _ := repo.IncrementWindow(ctx, 1, window, 3)
		assert.True(t, allowed)
	}
	allowed, _ := repo.IncrementWindow(ctx, 1, window, 3)
	assert.False(t, allowed)

	// 其他密钥不受影响
	allowed, _ = repo.IncrementWindow(ctx, 2, window, 3)
	assert.True(t, allowed)

	// 下一分钟窗口重新计数
	next := window.Add(time.Minute)
	allowed, _ = repo.IncrementWindow(ctx, 1, next, 3)
	assert.True(t, allowed)
}

func TestRateLimitRepository_DeleteBefore(t *testing.T) {
	repo := NewRateLimitRepository(setupDB(t))
	ctx := context.Background()

	old := model.TruncateWindow(time.Now().Add(-48 * time.Hour))
	fresh := model.TruncateWindow(time.Now())

	_, _ = repo.IncrementWindow(ctx, 1, old, 10)
	_, _ = repo.IncrementWindow(ctx, 1, fresh, 10)

	deleted, err := repo.DeleteBefore(ctx, time.Now().Add(-24*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// 新窗口保留
	_, err = repo.GetWindow(ctx, 1, fresh)
	assert.NoError(t, err)
}
