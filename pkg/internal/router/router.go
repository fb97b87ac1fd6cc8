// Package router 管理路由配置，把 handle 中的处理器绑定到 gin 路由组.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/internal/handle"
)

// Register 绑定 /api/v1 下的全部业务路由. statsCache 为 nil 时统计接口不缓存.
//
//	POST   /documents/upload        -> Upload
//	GET    /documents               -> List
//	GET    /documents/stats         -> Stats
//	GET    /documents/:id           -> Get
//	POST   /classify                -> Classify
//	POST   /search                  -> Search
//	POST   /intake-webhook          -> Webhook
//	GET    /bucket-scan             -> ScanBucket (dry run)
//	POST   /bucket-scan             -> ScanBucket
//	GET    /cleanup-deleted         -> Cleanup (dry run)
//	POST   /cleanup-deleted         -> Cleanup
//	POST   /review/approve          -> ApproveBatch
//	POST   /review/delete           -> DeleteBatch
//	POST   /review/:id/approve      -> Approve
//	GET    /review/:id/duplicates   -> Duplicates
//	PATCH  /review/:id              -> Edit
//	DELETE /review/:id              -> Delete
//
// 只读接口要求 viewer，写接口要求 reviewer，桶扫描与清理要求 admin.
func Register(g *gin.RouterGroup, h *handle.DocumentHandler, statsCache *cache.Cache) {
	RegisterStatsRoutes(g, h, statsCache)
	RegisterDocumentRoutes(g, h)
	RegisterIntakeRoutes(g, h)
	RegisterReviewRoutes(g, h)
}
