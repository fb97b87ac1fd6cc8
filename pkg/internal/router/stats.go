package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/internal/handle"
	"github.com/yeisme/docvault/pkg/middleware"
)

const statsTTL = 15 * time.Second

// RegisterStatsRoutes 注册统计路由，有缓存时响应缓存 statsTTL.
func RegisterStatsRoutes(g *gin.RouterGroup, h *handle.DocumentHandler, c *cache.Cache) {
	if c == nil {
		g.GET("/documents/stats", viewer, h.Stats)
		return
	}

	cfg := middleware.DefaultCacheConfig(c)
	cfg.TTL = statsTTL

	g.GET("/documents/stats", viewer, middleware.CacheMiddleware(cfg), h.Stats)
}
