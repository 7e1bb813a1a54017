package repository

import (
	"context"
	"time"

	"dropship_hub_v1_202608/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== JobRepository 任务仓库 ====================

// JobRepository 异步任务仓库接口
// 状态流转相关方法仅供 Worker 调用
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	GetByID(ctx context.Context, id int64) (*model.Job, error)
	GetByIDForAccount(ctx context.Context, id, accountID int64) (*model.Job, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Job, error)

	// Claim 条件抢占：queued -> running，attempts+1，写入租约
	// 返回 false 表示任务已被其他 worker 抢走或状态已变化
	Claim(ctx context.Context, id int64, now time.Time) (bool, error)
	MarkDone(ctx context.Context, id int64, output datatypes.JSON) error
	MarkFailed(ctx context.Context, id int64, errText string) error
	Requeue(ctx context.Context, id int64, errText string, runAfter time.Time) error

	// ReclaimExpired 回收租约过期的 running 任务，重新排队
	ReclaimExpired(ctx context.Context, now time.Time) (int64, error)
}

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository 创建任务仓库
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *model.Job) error {
	if job.State == "" {
		job.State = model.JobStateQueued
	}
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = model.JobDefaultMaxAttempts
	}
	if job.RunAfter.IsZero() {
		job.RunAfter = time.Now()
	}
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepository) GetByID(ctx context.Context, id int64) (*model.Job, error) {
	var job model.Job
	err := r.db.WithContext(ctx).First(&job, id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) GetByIDForAccount(ctx context.Context, id, accountID int64) (*model.Job, error) {
	var job model.Job
	err := r.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListDue 按创建时间升序取到期的排队任务（FIFO）
func (r *jobRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Job, error) {
	var jobs []model.Job
	err := r.db.WithContext(ctx).
		Where("state = ? AND run_after <= ?", model.JobStateQueued, now).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (r *jobRepository) Claim(ctx context.Context, id int64, now time.Time) (bool, error) {
	lease := now.Add(model.JobLeaseDuration)
	// attempts < max_attempts 保证终态时 attempts 不会越过上限
	result := r.db.WithContext(ctx).Model(&model.Job{}).
		Where("id = ? AND state = ? AND attempts < max_attempts", id, model.JobStateQueued).
		Updates(map[string]interface{}{
			"state":       model.JobStateRunning,
			"attempts":    gorm.Expr("attempts + 1"),
			"lease_until": lease,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *jobRepository) MarkDone(ctx context.Context, id int64, output datatypes.JSON) error {
	return r.db.WithContext(ctx).Model(&model.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":       model.JobStateDone,
			"output":      output,
			"error":       "",
			"lease_until": nil,
		}).Error
}

func (r *jobRepository) MarkFailed(ctx context.Context, id int64, errText string) error {
	return r.db.WithContext(ctx).Model(&model.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":       model.JobStateFailed,
			"error":       errText,
			"lease_until": nil,
		}).Error
}

func (r *jobRepository) Requeue(ctx context.Context, id int64, errText string, runAfter time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":       model.JobStateQueued,
			"error":       errText,
			"run_after":   runAfter,
			"lease_until": nil,
		}).Error
}

func (r *jobRepository) ReclaimExpired(ctx context.Context, now time.Time) (int64, error) {
	const expiredCond = "state = ? AND lease_until IS NOT NULL AND lease_until < ?"

	// 末次尝试中崩溃的任务没有重试额度，直接判终态失败
	err := r.db.WithContext(ctx).Model(&model.Job{}).
		Where(expiredCond+" AND attempts >= max_attempts", model.JobStateRunning, now).
		Updates(map[string]interface{}{
			"state":       model.JobStateFailed,
			"error":       "租约过期且已达最大尝试次数",
			"lease_until": nil,
		}).Error
	if err != nil {
		return 0, err
	}

	result := r.db.WithContext(ctx).Model(&model.Job{}).
		Where(expiredCond, model.JobStateRunning, now).
		Updates(map[string]interface{}{
			"state":       model.JobStateQueued,
			"lease_until": nil,
		})
	return result.RowsAffected, result.Error
}
