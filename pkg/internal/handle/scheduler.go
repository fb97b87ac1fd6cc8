package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/middleware"
	"github.com/yeisme/docvault/pkg/scheduler"
)

// SchedulerJobs 列出定时任务.
//
//	@Summary	定时任务列表
//	@Tags		调度器
//	@Produce	json
//	@Success	200	{object}	map[string][]scheduler.JobInfo
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.JobInfos()})
}

// SchedulerJob 查看单个任务.
//
//	@Summary	定时任务详情
//	@Tags		调度器
//	@Produce	json
//	@Param		name	path		string	true	"任务名"
//	@Success	200		{object}	scheduler.JobInfo
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/scheduler/jobs/{name} [get]
func SchedulerJob(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	info, err := sched.JobInfo(c.Param("name"))
	if err != nil {
		schedulerError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// SchedulerRunJob 立即触发一次任务，结果异步写入任务状态.
//
//	@Summary	手动触发定时任务
//	@Tags		调度器
//	@Produce	json
//	@Param		name	path		string	true	"任务名"
//	@Success	202		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/scheduler/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	name := c.Param("name")
	if err := sched.RunNow(name); err != nil {
		schedulerError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered", "job": name})
}

// SchedulerRemoveJob 移除任务，重启后按配置恢复.
//
//	@Summary	移除定时任务
//	@Tags		调度器
//	@Produce	json
//	@Param		name	path		string	true	"任务名"
//	@Success	200		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/scheduler/jobs/{name} [delete]
func SchedulerRemoveJob(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	if err := sched.RemoveJob(c.Param("name")); err != nil {
		schedulerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job removed"})
}

func schedulerOrAbort(c *gin.Context) *scheduler.Scheduler {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
	}

	return sched
}

func schedulerError(c *gin.Context, err error) {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
