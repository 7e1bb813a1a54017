package model

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// ==================== Job 状态常量 ====================

// JobState 任务状态
// queued -> running -> done / failed，失败未达上限回到 queued
const (
	JobStateQueued  = "queued"  // 排队中
	JobStateRunning = "running" // 执行中（瞬态）
	JobStateDone    = "done"    // 已完成（终态）
	JobStateFailed  = "failed"  // 已失败（终态）
)

// JobType 任务类型，闭集，新增类型须同时注册 handler
type JobType string

const (
	JobTypeOrderSync      JobType = "order_sync"      // 拉取市场订单
	JobTypeOrderFulfill   JobType = "order_fulfill"   // 创建供应商订单
	JobTypeTrackingSync   JobType = "tracking_sync"   // 拉取并回传物流
	JobTypeListingPublish JobType = "listing_publish" // 发布商品
)

// ==================== 重试参数 ====================

const (
	// JobDefaultMaxAttempts 默认最大尝试次数
	JobDefaultMaxAttempts = 3

	// JobBackoffBase 退避基础延迟
	JobBackoffBase = 30 * time.Second

	// JobBackoffMultiplier 退避倍数
	JobBackoffMultiplier = 4

	// JobLeaseDuration running 租约时长，超时由 worker 回收重新排队
	JobLeaseDuration = 10 * time.Minute
)

// BackoffDelay 计算第 attempts 次失败后的退避延迟
// base * multiplier^(attempts-1)：30s, 120s, 480s ...
func BackoffDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return JobBackoffBase * time.Duration(math.Pow(JobBackoffMultiplier, float64(attempts-1)))
}

// ==================== Job 异步任务 ====================

// Job 异步任务记录
// Router 只创建和读取，状态字段由 Worker 独占写入
type Job struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	AccountID int64   `gorm:"index;not null"`
	Type      JobType `gorm:"size:32;index;not null"`

	Payload datatypes.JSON `gorm:"type:jsonb"`

	State       string `gorm:"size:16;index;default:queued"`
	Attempts    int    `gorm:"default:0"`
	MaxAttempts int    `gorm:"default:3"`

	RunAfter   time.Time `gorm:"index;not null"`
	LeaseUntil *time.Time

	Output datatypes.JSON `gorm:"type:jsonb"`
	Error  string         `gorm:"type:text"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (*Job) TableName() string {
	return "jobs"
}

// IsTerminal 是否终态
func (j *Job) IsTerminal() bool {
	return j.State == JobStateDone || j.State == JobStateFailed
}

// CanRetry 失败后是否还有重试额度
func (j *Job) CanRetry() bool {
	return j.Attempts < j.MaxAttempts
}
