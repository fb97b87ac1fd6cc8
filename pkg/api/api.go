// Package api 把业务路由、健康检查与调度器路由挂到 /api/v1 下.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/internal/handle"
	"github.com/yeisme/docvault/pkg/internal/router"
)

// Prefix 所有接口的路径前缀.
const Prefix = "/api/v1"

// RegisterGroup 注册 /api/v1 路由组. withScheduler 为 false 时不注册调度器路由.
func RegisterGroup(e *gin.Engine, h *handle.DocumentHandler, statsCache *cache.Cache, withScheduler bool) *gin.RouterGroup {
	g := e.Group(Prefix)

	router.Register(g, h, statsCache)
	router.RegisterHealthCheckRoute(g)

	if withScheduler {
		router.RegisterSchedulerRoutes(g)
	}

	return g
}
