package controller

import (
	"encoding/json"
	"errors"
	"strconv"

	"dropship_hub_v1_202608/internal/api/dto"
	"dropship_hub_v1_202608/internal/middleware"
	"dropship_hub_v1_202608/internal/model"
	"dropship_hub_v1_202608/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ==================== JobController 任务接口 ====================

type JobController struct {
	JobRepo repository.JobRepository
}

func NewJobController(jobRepo repository.JobRepository) *JobController {
	return &JobController{JobRepo: jobRepo}
}

// DetailHandler 查询任务状态，供调用方轮询
// GET /v1/jobs/:id
func (ctrl *JobController) DetailHandler(c *gin.Context) {
	jobID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		middleware.RespondError(c, middleware.CodeValidationError, "任务 ID 非法")
		return
	}

	job, err := ctrl.JobRepo.GetByIDForAccount(c.Request.Context(), jobID, middleware.GetAccountID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.RespondError(c, middleware.CodeNotFound, "任务不存在")
			return
		}
		middleware.RespondError(c, middleware.CodeInternalError, "查询任务失败")
		return
	}

	middleware.RespondOK(c, gin.H{"job": toJobVO(job)})
}

func toJobVO(job *model.Job) dto.JobVO {
	vo := dto.JobVO{
		ID:    job.ID,
		Type:  string(job.Type),
		State: job.State,
		Error: job.Error,
	}
	if len(job.Output) > 0 {
		var output interface{}
		if err := json.Unmarshal(job.Output, &output); err == nil {
			vo.Output = output
		}
	}
	return vo
}
