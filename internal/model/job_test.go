package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	// 30s * 4^(n-1)
	assert.Equal(t, 30*time.Second, BackoffDelay(1))
	assert.Equal(t, 120*time.Second, BackoffDelay(2))
	assert.Equal(t, 480*time.Second, BackoffDelay(3))

	// 非法值按首次处理
	assert.Equal(t, 30*time.Second, BackoffDelay(0))
	assert.Equal(t, 30*time.Second, BackoffDelay(-3))
}

func TestJobStateHelpers(t *testing.T) {
	job := &Job{State: JobStateQueued, Attempts: 0, MaxAttempts: 3}
	assert.False(t, job.IsTerminal())
	assert.True(t, job.CanRetry())

	job.Attempts = 3
	assert.False(t, job.CanRetry())

	job.State = JobStateDone
	assert.True(t, job.IsTerminal())
	job.State = JobStateFailed
	assert.True(t, job.IsTerminal())
}

func TestGenerateApiKeySecret(t *testing.T) {
	a := GenerateApiKeySecret()
	b := GenerateApiKeySecret()

	assert.True(t, strings.HasPrefix(a, ApiKeyPrefix))
	assert.NotEqual(t, a, b, "每次生成的密钥应不同")
	assert.NotContains(t, a, "-")
}

func TestHashApiKey(t *testing.T) {
	secret := GenerateApiKeySecret()

	// 同一明文摘要稳定，不同明文摘要不同
	assert.Equal(t, HashApiKey(secret), HashApiKey(secret))
	assert.NotEqual(t, HashApiKey(secret), HashApiKey(secret+"x"))
	assert.Len(t, HashApiKey(secret), 64)
}

func TestTruncateWindow(t *testing.T) {
	ts := time.Date(2026, 3, 15, 10, 42, 37, 123456789, time.UTC)
	window := TruncateWindow(ts)

	assert.Equal(t, time.Date(2026, 3, 15, 10, 42, 0, 0, time.UTC), window)

	// 同一分钟内的请求落在同一窗口
	assert.Equal(t, window, TruncateWindow(ts.Add(20*time.Second)))
	assert.NotEqual(t, window, TruncateWindow(ts.Add(time.Minute)))
}
