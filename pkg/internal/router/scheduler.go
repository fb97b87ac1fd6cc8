package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/handle"
)

// RegisterSchedulerRoutes 注册定时任务查看与手动触发路由，仅 admin 可用.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	jobs := g.Group("/scheduler/jobs", admin)
	{
		jobs.GET("", handle.SchedulerJobs)
		jobs.GET("/:name", handle.SchedulerJob)
		jobs.POST("/:name/run", handle.SchedulerRunJob)
		jobs.DELETE("/:name", handle.SchedulerRemoveJob)
	}
}
