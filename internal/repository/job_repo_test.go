package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"dropship_hub_v1_202608/internal/model"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestJobRepository_CreateDefaults(t *testing.T) {
	repo := NewJobRepository(setupDB(t))
	ctx := context.Background()

	job := &model.Job{
		AccountID: 1,
		Type:      model.JobTypeOrderSync,
		Payload:   datatypes.JSON(`{"since_hours":24}`),
	}
	assert.NoError(t, repo.Create(ctx, job))
	assert.NotZero(t, job.ID)

	saved, err := repo.GetByID(ctx, job.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.JobStateQueued, saved.State)
	assert.Equal(t, model.JobDefaultMaxAttempts, saved.MaxAttempts)
	assert.Equal(t, 0, saved.Attempts)
	assert.False(t, saved.RunAfter.IsZero())
}

func TestJobRepository_GetByIDForAccount(t *testing.T) {
	repo := NewJobRepository(setupDB(t))
	ctx := context.Background()

	job := &model.Job{AccountID: 7, Type: model.JobTypeOrderSync}
	assert.NoError(t, repo.Create(ctx, job))

	// 本账号可见
	_, err := repo.GetByIDForAccount(ctx, job.ID, 7)
	assert.NoError(t, err)

	// 其他账号不可见
	_, err = repo.GetByIDForAccount(ctx, job.ID, 8)
	assert.Error(t, err)
}

func TestJobRepository_ListDue(t *testing.T) {
	repo := NewJobRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now()

	// 3 个到期、1 个未来、1 个已完成
	for i := 0; i < 3; i++ {
		job := &model.Job{
			AccountID: 1,
			Type:      model.JobTypeOrderFulfill,
			Payload:   datatypes.JSON(fmt.Sprintf(`{"order_id":%d}`, i+1)),
			RunAfter:  now.Add(-time.Minute),
		}
		assert.NoError(t, repo.Create(ctx, job))
		// 保证 created_at 有可区分的先后
		time.Sleep(2 * time.Millisecond)
	}
	assert.NoError(t, repo.Create(ctx, &model.Job{
		AccountID: 1, Type: model.JobTypeOrderFulfill, RunAfter: now.Add(time.Hour),
	}))
	doneJob := &model.Job{AccountID: 1, Type: model.JobTypeOrderFulfill, RunAfter: now.Add(-time.Hour)}
	assert.NoError(t, repo.Create(ctx, doneJob))
	assert.NoError(t, repo.MarkDone(ctx, doneJob.ID, nil))

	due, err := repo.ListDue(ctx, now, 10)
	assert.NoError(t, err)
	assert.Len(t, due, 3, "未来任务与终态任务不应入选")

	// FIFO：先创建的先出
	assert.JSONEq(t, `{"order_id":1}`, string(due[0].Payload))

	// limit 生效
	limited, err := repo.ListDue(ctx, now, 2)
	assert.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestJobRepository_Claim(t *testing.T) {
	repo := NewJobRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now()

	job := &model.Job{AccountID: 1, Type: model.JobTypeTrackingSync}
	assert.NoError(t, repo.Create(ctx, job))

	claimed, err := repo.Claim(ctx, job.ID, now)
	assert.NoError(t, err)
	assert.True(t, claimed)

	running, _ := repo.GetByID(ctx, job.ID)
	assert.Equal(t, model.JobStateRunning, running.State)
	assert.Equal(t, 1, running.Attempts)
	assert.NotNil(t, running.LeaseUntil)

	// 非 queued 状态不可再抢
	again, err := repo.Claim(ctx, job.ID, now)
	assert.NoError(t, err)
	assert.False(t, again, "已 running 的任务不应被二次抢占")
}

func TestJobRepository_RequeueThenClaim(t *testing.T) {
	repo := NewJobRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now()

	job := &model.Job{AccountID: 1, Type: model.JobTypeListingPublish}
	assert.NoError(t, repo.Create(ctx, job))

	claimed, _ := repo.Claim(ctx, job.ID, now)
	assert.True(t, claimed)

	runAfter := now.Add(30 * time.Second)
	assert.NoError(t, repo.Requeue(ctx, job.ID, "supplier timeout", runAfter))

	requeued, _ := repo.GetByID(ctx, job.ID)
	assert.Equal(t, model.JobStateQueued, requeued.State)
	assert.Equal(t, "supplier timeout", requeued.Error)
	assert.Nil(t, requeued.LeaseUntil)
	assert.Equal(t, 1, requeued.Attempts, "重新排队不清零 attempts")

	// 退避期内不入选
	due, _ := repo.ListDue(ctx, now, 10)
	assert.Empty(t, due)

	// 到点后可重新抢占，attempts 继续累加
	due, _ = repo.ListDue(ctx, runAfter.Add(time.Second), 10)
	assert.Len(t, due, 1)
	claimed, _ = repo.Claim(ctx, job.ID, runAfter.Add(time.Second))
	assert.True(t, claimed)
	reclaimed, _ := repo.GetByID(ctx, job.ID)
	assert.Equal(t, 2, reclaimed.Attempts)
}

func TestJobRepository_MarkDoneAndFailed(t *testing.T) {
	repo := NewJobRepository(setupDB(t))
	ctx := context.Background()

	done := &model.Job{AccountID: 1, Type: model.JobTypeOrderSync}
	failed := &model.Job{AccountID: 1, Type: model.JobTypeOrderSync}
	assert.NoError(t, repo.Create(ctx, done))
	assert.NoError(t, repo.Create(ctx, failed))

	assert.NoError(t, repo.MarkDone(ctx, done.ID, datatypes.JSON(`{"imported":3}`)))
	savedDone, _ := repo.GetByID(ctx, done.ID)
	assert.Equal(t, model.JobStateDone, savedDone.State)
	assert.Contains(t, string(savedDone.Output), "imported")
	assert.Nil(t, savedDone.LeaseUntil)

	assert.NoError(t, repo.MarkFailed(ctx, failed.ID, "market rejected"))
	savedFailed, _ := repo.GetByID(ctx, failed.ID)
	assert.Equal(t, model.JobStateFailed, savedFailed.State)
	assert.Equal(t, "market rejected", savedFailed.Error)
}

func TestJobRepository_ReclaimExpired(t *testing.T) {
	db := setupDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()
	now := time.Now()

	// 过期租约
	expired := &model.Job{AccountID: 1, Type: model.JobTypeOrderSync}
	assert.NoError(t, repo.Create(ctx, expired))
	claimed, _ := repo.Claim(ctx, expired.ID, now.Add(-2*model.JobLeaseDuration))
	assert.True(t, claimed)

	// 租约仍有效
	active := &model.Job{AccountID: 1, Type: model.JobTypeOrderSync}
	assert.NoError(t, repo.Create(ctx, active))
	claimed, _ = repo.Claim(ctx, active.ID, now)
	assert.True(t, claimed)

	count, err := repo.ReclaimExpired(ctx, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	back, _ := repo.GetByID(ctx, expired.ID)
	assert.Equal(t, model.JobStateQueued, back.State)
	assert.Nil(t, back.LeaseUntil)

	stillRunning, _ := repo.GetByID(ctx, active.ID)
	assert.Equal(t, model.JobStateRunning, stillRunning.State)
}

func TestJobRepository_ReclaimExpiredExhaustedGoesTerminal(t *testing.T) {
	db := setupDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()
	now := time.Now()

	// 末次尝试执行中崩溃：attempts 已到上限，租约过期
	job := &model.Job{AccountID: 1, Type: model.JobTypeOrderSync}
	assert.NoError(t, repo.Create(ctx, job))
	assert.NoError(t, db.Model(&model.Job{}).Where("id = ?", job.ID).
		Update("attempts", model.JobDefaultMaxAttempts-1).Error)
	claimed, _ := repo.Claim(ctx, job.ID, now.Add(-2*model.JobLeaseDuration))
	assert.True(t, claimed)

	count, err := repo.ReclaimExpired(ctx, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)

	back, _ := repo.GetByID(ctx, job.ID)
	assert.Equal(t, model.JobStateFailed, back.State)
	assert.Equal(t, model.JobDefaultMaxAttempts, back.Attempts, "终态后 attempts 不应越过上限")
	assert.NotEmpty(t, back.Error)
	assert.Nil(t, back.LeaseUntil)

	// 终态任务不可再被抢占
	claimed, err = repo.Claim(ctx, back.ID, now)
	assert.NoError(t, err)
	assert.False(t, claimed)
}

func TestJobRepository_ClaimStopsAtMaxAttempts(t *testing.T) {
	db := setupDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()
	now := time.Now()

	job := &model.Job{AccountID: 1, Type: model.JobTypeOrderSync}
	assert.NoError(t, repo.Create(ctx, job))
	assert.NoError(t, db.Model(&model.Job{}).Where("id = ?", job.ID).
		Update("attempts", model.JobDefaultMaxAttempts).Error)

	claimed, err := repo.Claim(ctx, job.ID, now)
	assert.NoError(t, err)
	assert.False(t, claimed, "重试额度耗尽的任务不应再被抢占")
}
