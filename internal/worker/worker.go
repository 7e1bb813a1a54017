package worker

import (
	"context"
	"log"
	"time"

	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/repository"

	"github.com/robfig/cron/v3"
)

// ==================== Worker 轮询器 ====================

const (
	// BatchSize 每轮最多处理的任务数
	BatchSize = 5

	// tickTimeout 单轮总超时，避免慢任务拖垮下一轮
	tickTimeout = 55 * time.Second
)

// Worker 异步任务轮询器
// 每分钟醒来一次：先回收过期租约，再按 FIFO 抢占并顺序执行一批任务
type Worker struct {
	jobRepo   repository.JobRepository
	limitRepo repository.RateLimitRepository
	handlers  *HandlerSet
	cron      *cron.Cron
}

// NewWorker 创建任务轮询器
func NewWorker(jobRepo repository.JobRepository, limitRepo repository.RateLimitRepository, handlers *HandlerSet) *Worker {
	return &Worker{
		jobRepo:   jobRepo,
		limitRepo: limitRepo,
		handlers:  handlers,
		cron:      cron.New(cron.WithSeconds()), // 支持秒级控制
	}
}

// Start 启动定时轮询
func (w *Worker) Start() {
	// 首次执行立即跑一轮，避免重启后积压等待
	go func() {
		log.Println("[Worker] 服务启动，执行首轮任务检查...")
		w.Tick(time.Now())
	}()

	// 策略：每分钟整点轮询
	// Cron 表达式: "0 * * * * *" (秒 分 时 日 月 周)
	_, err := w.cron.AddFunc("0 * * * * *", func() {
		w.Tick(time.Now())
	})
	if err != nil {
		log.Fatalf("无法启动任务轮询: %v", err)
	}

	// 限流窗口清理：每小时整点删除 24 小时前的窗口行
	_, err = w.cron.AddFunc("0 0 * * * *", func() {
		w.pruneWindows(time.Now())
	})
	if err != nil {
		log.Fatalf("无法启动限流窗口清理任务: %v", err)
	}

	w.cron.Start()
	log.Println("任务轮询已启动 (每分钟处理一批)")
}

// Stop 停止轮询，等待进行中的一轮结束
func (w *Worker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	log.Println("[Worker] 任务轮询已停止")
}

// ==================== 轮询主体 ====================

// Tick 执行一轮：回收过期租约 + 抢占执行一批到期任务
func (w *Worker) Tick(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	// 回收崩溃遗留的 running 任务
	reclaimed, err := w.jobRepo.ReclaimExpired(ctx, now)
	if err != nil {
		log.Printf("[Worker] 回收过期租约失败: %v", err)
	} else if reclaimed > 0 {
		log.Printf("[Worker] 回收 %d 个租约过期任务", reclaimed)
	}

	jobs, err := w.jobRepo.ListDue(ctx, now, BatchSize)
	if err != nil {
		log.Printf("[Worker] 查询到期任务失败: %v", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	for i := range jobs {
		w.runJob(ctx, &jobs[i], now)
	}
}

// runJob 抢占并执行单个任务，失败只影响自身
func (w *Worker) runJob(ctx context.Context, job *model.Job, now time.Time) {
	claimed, err := w.jobRepo.Claim(ctx, job.ID, now)
	if err != nil {
		log.Printf("[Worker] 任务 %d 抢占失败: %v", job.ID, err)
		return
	}
	if !claimed {
		// 已被其他实例抢走或状态已变化，跳过
		return
	}
	// 抢占成功后 attempts 已 +1，本地同步便于判断重试额度
	job.Attempts++

	handler, ok := w.handlers.Lookup(job.Type)
	if !ok {
		// 未注册的类型不存在重试的意义，直接判终态失败
		errText := "未知任务类型: " + string(job.Type)
		log.Printf("[Worker] 任务 %d %s", job.ID, errText)
		if err := w.jobRepo.MarkFailed(ctx, job.ID, errText); err != nil {
			log.Printf("[Worker] 任务 %d 标记失败出错: %v", job.ID, err)
		}
		return
	}

	output, runErr := handler(ctx, job)
	if runErr == nil {
		if err := w.jobRepo.MarkDone(ctx, job.ID, output); err != nil {
			log.Printf("[Worker] 任务 %d 标记完成出错: %v", job.ID, err)
		}
		log.Printf("[Worker] 任务 %d (%s) 执行成功", job.ID, job.Type)
		return
	}

	if job.CanRetry() {
		delay := model.BackoffDelay(job.Attempts)
		runAfter := time.Now().Add(delay)
		if err := w.jobRepo.Requeue(ctx, job.ID, runErr.Error(), runAfter); err != nil {
			log.Printf("[Worker] 任务 %d 重新排队出错: %v", job.ID, err)
			return
		}
		log.Printf("[Worker] 任务 %d (%s) 第 %d 次失败: %v, %s 后重试",
			job.ID, job.Type, job.Attempts, runErr, delay)
		return
	}

	if err := w.jobRepo.MarkFailed(ctx, job.ID, runErr.Error()); err != nil {
		log.Printf("[Worker] 任务 %d 标记失败出错: %v", job.ID, err)
		return
	}
	log.Printf("[Worker] 任务 %d (%s) 达到最大尝试次数，判为失败: %v", job.ID, job.Type, runErr)
}

// ==================== 限流窗口清理 ====================

func (w *Worker) pruneWindows(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := w.limitRepo.DeleteBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		log.Printf("[Worker] 清理限流窗口失败: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[Worker] 清理 %d 条过期限流窗口", deleted)
	}
}
